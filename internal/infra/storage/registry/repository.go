package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Repository хранилище зарегистрированных машин в памяти.
// Ключ - сама пара (address, port). Все операции под одной блокировкой.
type Repository struct {
	mu   sync.RWMutex
	cars map[domain.CarIdentity]domain.CarRecord
}

// NewRepository создает пустое хранилище
func NewRepository() *Repository {
	return &Repository{cars: make(map[domain.CarIdentity]domain.CarRecord)}
}

// Register добавляет машину. Повторная регистрация возвращает ErrAlreadyRegistered.
func (r *Repository) Register(_ context.Context, car domain.CarRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cars[car.Identity]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, car.Identity)
	}
	r.cars[car.Identity] = car
	return nil
}

// Get возвращает копию записи о машине
func (r *Repository) Get(_ context.Context, id domain.CarIdentity) (domain.CarRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	car, ok := r.cars[id]
	if !ok {
		return domain.CarRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return car, nil
}

// Remove удаляет машину из хранилища
func (r *Repository) Remove(_ context.Context, id domain.CarIdentity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cars[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.cars, id)
	return nil
}

// SetRented обновляет закешированный флаг аренды
func (r *Repository) SetRented(_ context.Context, id domain.CarIdentity, rented bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	car, ok := r.cars[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	car.Rented = rented
	r.cars[id] = car
	return nil
}

// List возвращает снимок всех машин, отсортированный по (address, port)
func (r *Repository) List(_ context.Context) []domain.CarRecord {
	r.mu.RLock()
	cars := make([]domain.CarRecord, 0, len(r.cars))
	for _, car := range r.cars {
		cars = append(cars, car)
	}
	r.mu.RUnlock()

	sort.Slice(cars, func(i, j int) bool {
		return cars[i].Identity.Less(cars[j].Identity)
	})
	return cars
}

// Stats возвращает число зарегистрированных и арендованных машин
func (r *Repository) Stats() (registered, rented int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, car := range r.cars {
		if car.Rented {
			rented++
		}
	}
	return len(r.cars), rented
}
