package get_car_events

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

type EventJournal interface {
	ListByCar(ctx context.Context, car domain.CarIdentity, limit uint64) ([]domain.RentalEvent, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
