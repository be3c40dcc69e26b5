package supervisor

import "errors"

var (
	// ErrListen возвращается, когда не удалось открыть порт Backend
	ErrListen = errors.New("supervisor: failed to listen")

	// ErrServe возвращается при фатальной ошибке цикла accept
	ErrServe = errors.New("supervisor: serve failed")
)
