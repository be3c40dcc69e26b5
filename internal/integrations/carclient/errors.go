package carclient

import "errors"

var (
	// ErrDial возвращается, когда не удалось подключиться к машине
	ErrDial = errors.New("carclient: failed to connect to car")

	// ErrExchange возвращается при ошибке отправки команды или чтения ответа
	ErrExchange = errors.New("carclient: command exchange failed")
)
