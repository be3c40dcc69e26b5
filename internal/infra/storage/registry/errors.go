package registry

import "errors"

var (
	// ErrAlreadyRegistered возвращается, когда машина с таким адресом уже есть
	ErrAlreadyRegistered = errors.New("registry: car already registered")

	// ErrNotFound возвращается, когда машины нет в хранилище
	ErrNotFound = errors.New("registry: car not found")
)
