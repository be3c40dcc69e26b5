package rentals

import "errors"

var (
	// ErrAlreadyRegistered возвращается, когда машина уже зарегистрирована
	ErrAlreadyRegistered = errors.New("rentals: car already registered")

	// ErrNotRegistered возвращается, когда машина не зарегистрирована
	ErrNotRegistered = errors.New("rentals: car not registered")

	// ErrAlreadyRented возвращается, когда машина уже арендована
	ErrAlreadyRented = errors.New("rentals: car already rented")

	// ErrNotRented возвращается, когда машина не арендована
	ErrNotRented = errors.New("rentals: car not rented")

	// ErrCarUnavailable возвращается, когда машина не ответила или отказала без причины
	ErrCarUnavailable = errors.New("rentals: car unavailable")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("rentals: internal error")
)
