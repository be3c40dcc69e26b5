package rentals

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/protocol/carmsg"
)

// CarRegistry интерфейс реестра машин
type CarRegistry interface {
	Register(ctx context.Context, car domain.CarRecord) error
	Get(ctx context.Context, id domain.CarIdentity) (domain.CarRecord, error)
	SetRented(ctx context.Context, id domain.CarIdentity, rented bool) error
	List(ctx context.Context) []domain.CarRecord
	Stats() (registered, rented int)
}

// CarClient интерфейс клиента машин
type CarClient interface {
	Send(ctx context.Context, car domain.CarIdentity, cmd carmsg.Message) carmsg.Message
}

// EventJournal интерфейс журнала событий аренды
type EventJournal interface {
	Append(ctx context.Context, event domain.RentalEvent) (*domain.RentalEvent, error)
}

// Metrics интерфейс метрик парка машин
type Metrics interface {
	SetFleet(registered, rented int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
