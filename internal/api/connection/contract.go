package connection

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// RentalService интерфейс сервиса аренды
type RentalService interface {
	Register(ctx context.Context, userID uint16, car domain.CarIdentity) error
	ListCars(ctx context.Context) []domain.CarRecord
	StartRental(ctx context.Context, userID uint16, car domain.CarIdentity) error
	EndRental(ctx context.Context, userID uint16, car domain.CarIdentity) error
}

// Metrics интерфейс метрик запросов
type Metrics interface {
	ObserveRequest(request, response string, duration time.Duration)
}

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
