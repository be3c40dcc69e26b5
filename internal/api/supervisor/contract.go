package supervisor

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/api/connection"
)

// Metrics метрики соединений и запросов
type Metrics interface {
	connection.Metrics
	ConnectionOpened()
	ConnectionClosed()
}

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Config настройки сервера
type Config struct {
	Address            string
	AcceptPollInterval time.Duration
	Handler            connection.Config
}
