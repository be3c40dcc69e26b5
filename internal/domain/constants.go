package domain

import "time"

// Сетевые параметры по умолчанию
const (
	DefaultBackendHost        = "127.0.0.1"
	DefaultBackendPort        = 5000
	DefaultRecvPollInterval   = 1 * time.Second
	DefaultFrameTimeout       = 1 * time.Second
	DefaultAcceptPollInterval = 1 * time.Second
	DefaultCarRPCTimeout      = 2 * time.Second
	DefaultCarDialTimeout     = 2 * time.Second
	DefaultShutdownTimeout    = 10 * time.Second
)

// CarListSeparator завершает каждую строку payload CAR_LIST
const CarListSeparator = "\n"
