package backendclient

import "errors"

var (
	// ErrDial возвращается, когда не удалось подключиться к Backend
	ErrDial = errors.New("backendclient: failed to connect to backend")

	// ErrExchange возвращается при ошибке отправки запроса или чтения ответа
	ErrExchange = errors.New("backendclient: request exchange failed")

	// ErrUnexpectedResponse возвращается, когда тип ответа не подходит к запросу
	ErrUnexpectedResponse = errors.New("backendclient: unexpected response")
)
