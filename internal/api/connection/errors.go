package connection

import (
	"errors"

	"github.com/m04kA/SMC-RentalService/internal/protocol/appmsg"
	"github.com/m04kA/SMC-RentalService/internal/service/rentals"
)

var (
	// ErrMalformed возвращается, когда запрос не удалось разобрать
	ErrMalformed = errors.New("connection: malformed request")

	// ErrUnknownType возвращается, когда тип запроса не обрабатывается Backend
	ErrUnknownType = errors.New("connection: unknown message type")

	// ErrTransport возвращается при ошибке сокета App, не являющейся штатным разрывом
	ErrTransport = errors.New("connection: transport error")

	errStopRequested = errors.New("connection: stop requested")
)

// errorResponses соответствие ошибок кодам ответа. Порядок важен: первое совпадение.
var errorResponses = []struct {
	err      error
	response appmsg.MessageType
}{
	{ErrMalformed, appmsg.TypeBadFormat},
	{appmsg.ErrMalformed, appmsg.TypeBadFormat},
	{ErrUnknownType, appmsg.TypeInvalidType},
	{rentals.ErrAlreadyRegistered, appmsg.TypeAlreadyRegistered},
	{rentals.ErrNotRegistered, appmsg.TypeNotRegistered},
	{rentals.ErrAlreadyRented, appmsg.TypeAlreadyRented},
	{rentals.ErrNotRented, appmsg.TypeNotRented},
	{rentals.ErrCarUnavailable, appmsg.TypeCarUnavailable},
}

// responseFor возвращает код ответа для ошибки.
// Неизвестные ошибки отдаются как CAR_UNAVAILABLE: запрос не должен остаться без ответа.
func responseFor(err error) appmsg.MessageType {
	for _, m := range errorResponses {
		if errors.Is(err, m.err) {
			return m.response
		}
	}
	return appmsg.TypeCarUnavailable
}
