package cardevice

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Metrics метрики обработанных команд
type Metrics interface {
	ObserveDeviceCommand(command, response string)
}
