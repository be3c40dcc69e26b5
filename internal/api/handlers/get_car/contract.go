package get_car

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

type CarService interface {
	GetCar(ctx context.Context, car domain.CarIdentity) (domain.CarRecord, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
