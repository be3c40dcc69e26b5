package cardevice

import (
	"sync"

	"github.com/m04kA/SMC-RentalService/internal/protocol/carmsg"
)

// State собственное состояние машины: арендована или свободна.
// Это источник истины, Backend только кеширует его.
type State struct {
	mu     sync.Mutex
	rented bool
}

// Rented возвращает текущее состояние
func (s *State) Rented() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rented
}

// Apply применяет команду и возвращает ответ для Backend
func (s *State) Apply(cmd carmsg.Message) carmsg.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Code {
	case carmsg.CodeStartRental:
		if s.rented {
			return carmsg.Fail(carmsg.ReasonAlreadyRented)
		}
		s.rented = true
		return carmsg.Success()

	case carmsg.CodeEndRental:
		if !s.rented {
			return carmsg.Fail(carmsg.ReasonNotRented)
		}
		s.rented = false
		return carmsg.Success()

	case carmsg.CodePing:
		return carmsg.Success()

	default:
		return carmsg.Fail(carmsg.ReasonNone)
	}
}
