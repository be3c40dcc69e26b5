package cardevice

import "errors"

var (
	// ErrListen возвращается, когда не удалось открыть порт машины
	ErrListen = errors.New("cardevice: failed to listen")

	// ErrServe возвращается при фатальной ошибке цикла accept
	ErrServe = errors.New("cardevice: serve failed")
)
