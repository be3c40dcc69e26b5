package list_cars

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

type CarService interface {
	ListCars(ctx context.Context) []domain.CarRecord
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
