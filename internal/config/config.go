package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Config конфигурация Backend
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Car     CarConfig     `toml:"car"`
	Admin   AdminConfig   `toml:"admin"`
	Metrics MetricsConfig `toml:"metrics"`
	Logs    LogsConfig    `toml:"logs"`
	Journal JournalConfig `toml:"journal"`
}

// ServerConfig настройки TCP-сервера для App
type ServerConfig struct {
	Host                   string `toml:"host"`
	Port                   int    `toml:"port"`
	RecvPollIntervalMs     int    `toml:"recv_poll_interval_ms"`
	FrameTimeoutMs         int    `toml:"frame_timeout_ms"`
	AcceptPollIntervalMs   int    `toml:"accept_poll_interval_ms"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout"`
}

// CarConfig настройки обмена с машинами
type CarConfig struct {
	RPCTimeoutMs  int `toml:"rpc_timeout_ms"`
	DialTimeoutMs int `toml:"dial_timeout_ms"`
}

// AdminConfig настройки служебного HTTP-сервера
type AdminConfig struct {
	Enabled      bool `toml:"enabled"`
	Port         int  `toml:"port"`
	ReadTimeout  int  `toml:"read_timeout"`
	WriteTimeout int  `toml:"write_timeout"`
}

// MetricsConfig настройки метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// JournalConfig настройки журнала аренд в PostgreSQL
type JournalConfig struct {
	Enabled         bool   `toml:"enabled"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                   domain.DefaultBackendHost,
			Port:                   domain.DefaultBackendPort,
			RecvPollIntervalMs:     int(domain.DefaultRecvPollInterval / time.Millisecond),
			FrameTimeoutMs:         int(domain.DefaultFrameTimeout / time.Millisecond),
			AcceptPollIntervalMs:   int(domain.DefaultAcceptPollInterval / time.Millisecond),
			ShutdownTimeoutSeconds: int(domain.DefaultShutdownTimeout / time.Second),
		},
		Car: CarConfig{
			RPCTimeoutMs:  int(domain.DefaultCarRPCTimeout / time.Millisecond),
			DialTimeoutMs: int(domain.DefaultCarDialTimeout / time.Millisecond),
		},
		Admin: AdminConfig{
			Enabled:      true,
			Port:         8080,
			ReadTimeout:  5,
			WriteTimeout: 10,
		},
		Metrics: MetricsConfig{
			Enabled:     true,
			Path:        "/metrics",
			ServiceName: "rental_backend",
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Journal: JournalConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
	}
}

// Load читает конфигурацию из TOML-файла поверх значений по умолчанию.
// Пустой путь означает только значения по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown keys %v", ErrInvalid, undecoded)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MetricsExposed сообщает, что метрики собираются и отдаются по HTTP.
// Эндпоинт метрик живет на служебном сервере.
func (c *Config) MetricsExposed() bool {
	return c.Metrics.Enabled && c.Admin.Enabled
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.RecvPollIntervalMs <= 0 {
		errs = append(errs, errors.New("server.recv_poll_interval_ms must be positive"))
	}
	if c.Server.FrameTimeoutMs <= 0 {
		errs = append(errs, errors.New("server.frame_timeout_ms must be positive"))
	}
	if c.Server.AcceptPollIntervalMs <= 0 {
		errs = append(errs, errors.New("server.accept_poll_interval_ms must be positive"))
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.Car.RPCTimeoutMs <= 0 {
		errs = append(errs, errors.New("car.rpc_timeout_ms must be positive"))
	}
	if c.Car.DialTimeoutMs <= 0 {
		errs = append(errs, errors.New("car.dial_timeout_ms must be positive"))
	}
	if c.Admin.Enabled && (c.Admin.Port <= 0 || c.Admin.Port > 65535) {
		errs = append(errs, fmt.Errorf("admin.port out of range: %d", c.Admin.Port))
	}
	if c.Metrics.Enabled && c.Metrics.Path == "" {
		errs = append(errs, errors.New("metrics.path is required when metrics are enabled"))
	}
	if c.Journal.Enabled && (c.Journal.Host == "" || c.Journal.DBName == "") {
		errs = append(errs, errors.New("journal.host and journal.dbname are required when the journal is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Address адрес TCP-сервера в виде host:port
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// RecvPollInterval интервал проверки остановки при ожидании запроса
func (s ServerConfig) RecvPollInterval() time.Duration {
	return time.Duration(s.RecvPollIntervalMs) * time.Millisecond
}

// FrameTimeout время на дочитывание начатого сообщения
func (s ServerConfig) FrameTimeout() time.Duration {
	return time.Duration(s.FrameTimeoutMs) * time.Millisecond
}

// AcceptPollInterval интервал проверки остановки и уборки обработчиков
func (s ServerConfig) AcceptPollInterval() time.Duration {
	return time.Duration(s.AcceptPollIntervalMs) * time.Millisecond
}

// ShutdownTimeout время на корректную остановку
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// RPCTimeout время ожидания ответа машины
func (c CarConfig) RPCTimeout() time.Duration {
	return time.Duration(c.RPCTimeoutMs) * time.Millisecond
}

// DialTimeout время на установку соединения с машиной
func (c CarConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMs) * time.Millisecond
}

// DSN строка подключения к PostgreSQL
func (j JournalConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		j.Host, j.Port, j.User, j.Password, j.DBName, j.SSLMode)
}
