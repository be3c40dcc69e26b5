package carclient

import "time"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Metrics метрики обмена с машинами
type Metrics interface {
	ObserveCarRPC(command, result string, duration time.Duration)
}
