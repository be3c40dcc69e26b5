package rentals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/registry"
	"github.com/m04kA/SMC-RentalService/internal/protocol/carmsg"
)

const journalTimeout = time.Second

// Service сервис регистрации машин и аренды.
// Кеш флага аренды в реестре обновляется только после ответа машины.
type Service struct {
	registry CarRegistry
	cars     CarClient
	journal  EventJournal
	metrics  Metrics
	logger   Logger
	now      func() time.Time
}

// NewService создает новый экземпляр сервиса аренды.
// journal и metrics могут быть nil.
func NewService(
	registry CarRegistry,
	cars CarClient,
	journal EventJournal,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		registry: registry,
		cars:     cars,
		journal:  journal,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Register проверяет доступность машины командой PING и добавляет её в реестр
func (s *Service) Register(ctx context.Context, userID uint16, car domain.CarIdentity) error {
	s.logger.Info("Register: user=%d car=%s", userID, car)

	resp := s.cars.Send(carContext(ctx), car, carmsg.Command(carmsg.CodePing))
	if !resp.IsSuccess() {
		s.logger.Warn("Register: car=%s did not answer ping (%s)", car, resp)
		return fmt.Errorf("%w: %s", ErrCarUnavailable, car)
	}

	err := s.registry.Register(ctx, domain.CarRecord{Identity: car, RegisteredAt: s.now()})
	if err != nil {
		if errors.Is(err, registry.ErrAlreadyRegistered) {
			s.logger.Warn("Register: car=%s already registered", car)
			return fmt.Errorf("%w: %s", ErrAlreadyRegistered, car)
		}
		s.logger.Error("Register: registry error for car=%s: %v", car, err)
		return fmt.Errorf("%w: Register - registry error: %v", ErrInternal, err)
	}

	s.record(ctx, userID, car, domain.EventCarRegistered)
	s.refreshFleet()

	s.logger.Info("Register: car=%s registered", car)
	return nil
}

// ListCars возвращает снимок реестра
func (s *Service) ListCars(ctx context.Context) []domain.CarRecord {
	return s.registry.List(ctx)
}

// GetCar возвращает закешированное состояние машины
func (s *Service) GetCar(ctx context.Context, car domain.CarIdentity) (domain.CarRecord, error) {
	record, err := s.registry.Get(ctx, car)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return domain.CarRecord{}, fmt.Errorf("%w: %s", ErrNotRegistered, car)
		}
		return domain.CarRecord{}, fmt.Errorf("%w: GetCar - registry error: %v", ErrInternal, err)
	}
	return record, nil
}

// StartRental начинает аренду машины
func (s *Service) StartRental(ctx context.Context, userID uint16, car domain.CarIdentity) error {
	s.logger.Info("StartRental: user=%d car=%s", userID, car)
	return s.transition(ctx, userID, car, rentalStart)
}

// EndRental завершает аренду машины
func (s *Service) EndRental(ctx context.Context, userID uint16, car domain.CarIdentity) error {
	s.logger.Info("EndRental: user=%d car=%s", userID, car)
	return s.transition(ctx, userID, car, rentalEnd)
}

// rentalOp описывает одно направление перехода Available <-> Rented
type rentalOp struct {
	name        string
	command     carmsg.Code
	wantRented  bool // значение флага после успешной команды
	conflict    carmsg.Reason
	conflictErr error
	event       domain.RentalEventType
	reconciled  domain.RentalEventType
}

var (
	rentalStart = rentalOp{
		name:        "StartRental",
		command:     carmsg.CodeStartRental,
		wantRented:  true,
		conflict:    carmsg.ReasonAlreadyRented,
		conflictErr: ErrAlreadyRented,
		event:       domain.EventRentalStarted,
		reconciled:  domain.EventReconciledRented,
	}
	rentalEnd = rentalOp{
		name:        "EndRental",
		command:     carmsg.CodeEndRental,
		wantRented:  false,
		conflict:    carmsg.ReasonNotRented,
		conflictErr: ErrNotRented,
		event:       domain.EventRentalEnded,
		reconciled:  domain.EventReconciledReturned,
	}
)

func (s *Service) transition(ctx context.Context, userID uint16, car domain.CarIdentity, op rentalOp) error {
	record, err := s.GetCar(ctx, car)
	if err != nil {
		s.logger.Warn("%s: car=%s: %v", op.name, car, err)
		return err
	}

	// Кеш уже в целевом состоянии - к машине не обращаемся
	if record.Rented == op.wantRented {
		s.logger.Warn("%s: car=%s rejected by cached state rented=%t", op.name, car, record.Rented)
		return fmt.Errorf("%w: %s", op.conflictErr, car)
	}

	resp := s.cars.Send(carContext(ctx), car, carmsg.Command(op.command))
	switch {
	case resp.IsSuccess():
		if err := s.setRented(ctx, car, op.wantRented); err != nil {
			s.logger.Error("%s: failed to update car=%s: %v", op.name, car, err)
			return err
		}
		s.record(ctx, userID, car, op.event)
		s.logger.Info("%s: car=%s confirmed", op.name, car)
		return nil

	case resp.Code == carmsg.CodeFail && resp.Reason == op.conflict:
		// Машина - источник истины: приводим кеш к её состоянию
		if err := s.setRented(ctx, car, op.wantRented); err != nil {
			s.logger.Error("%s: failed to reconcile car=%s: %v", op.name, car, err)
			return err
		}
		s.record(ctx, userID, car, op.reconciled)
		s.logger.Warn("%s: car=%s reported %s, cache reconciled", op.name, car, resp.Reason)
		return fmt.Errorf("%w: %s", op.conflictErr, car)

	default:
		s.logger.Warn("%s: car=%s unavailable (%s)", op.name, car, resp)
		return fmt.Errorf("%w: %s", ErrCarUnavailable, car)
	}
}

// carContext отвязывает обмен с машиной от отмены запроса: начатая команда доводится до ответа.
// Ожидание ограничено таймаутами клиента машины.
func carContext(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func (s *Service) setRented(ctx context.Context, car domain.CarIdentity, rented bool) error {
	if err := s.registry.SetRented(ctx, car, rented); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotRegistered, car)
		}
		return fmt.Errorf("%w: registry error: %v", ErrInternal, err)
	}
	s.refreshFleet()
	return nil
}

// record пишет событие в журнал. Ошибка журнала не влияет на результат операции.
func (s *Service) record(ctx context.Context, userID uint16, car domain.CarIdentity, eventType domain.RentalEventType) {
	if s.journal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	_, err := s.journal.Append(ctx, domain.RentalEvent{
		Car:       car,
		UserID:    userID,
		Type:      eventType,
		CreatedAt: s.now(),
	})
	if err != nil {
		s.logger.Error("Journal: failed to record %s for car=%s: %v", eventType, car, err)
	}
}

func (s *Service) refreshFleet() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetFleet(s.registry.Stats())
}
