package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-RentalService/internal/api/connection"
	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	getCarHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_car"
	getCarEventsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_car_events"
	listCarsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/list_cars"
	"github.com/m04kA/SMC-RentalService/internal/api/supervisor"
	"github.com/m04kA/SMC-RentalService/internal/config"
	journalRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/journal"
	registryRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/registry"
	carClient "github.com/m04kA/SMC-RentalService/internal/integrations/carclient"
	rentalsService "github.com/m04kA/SMC-RentalService/internal/service/rentals"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
)

func main() {
	configPath := pflag.String("config", "", "path to TOML config (defaults only when empty)")
	host := pflag.String("host", "", "override server.host")
	port := pflag.Int("port", 0, "override server.port")
	logLevel := pflag.String("log-level", "", "override logs.level")
	pflag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if pflag.CommandLine.Changed("host") {
		cfg.Server.Host = *host
	}
	if pflag.CommandLine.Changed("port") {
		cfg.Server.Port = *port
	}
	if pflag.CommandLine.Changed("log-level") {
		cfg.Logs.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting rental backend...")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		if cfg.MetricsExposed() {
			log.Info("Metrics enabled at http://:%d%s", cfg.Admin.Port, cfg.Metrics.Path)
		} else {
			log.Warn("Metrics are collected but not served: admin server is disabled")
		}
	}

	// Журнал событий аренды (если включен). Состояние реестра из него не восстанавливается.
	var (
		journal      rentalsService.EventJournal
		eventsSource *journalRepo.Repository
	)
	if cfg.Journal.Enabled {
		db, err := openJournalDB(cfg.Journal)
		if err != nil {
			log.Fatal("Failed to connect to journal database: %v", err)
		}
		defer db.Close()
		log.Info("Successfully connected to journal database (host=%s, port=%d, db=%s)",
			cfg.Journal.Host, cfg.Journal.Port, cfg.Journal.DBName)

		eventsSource = journalRepo.NewRepository(db)
		schemaCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = eventsSource.EnsureSchema(schemaCtx)
		cancel()
		if err != nil {
			log.Fatal("Failed to prepare journal schema: %v", err)
		}
		journal = eventsSource
	}

	// Инициализируем реестр, клиента машин и сервис
	registry := registryRepo.NewRepository()
	cars := carClient.NewClient(cfg.Car.DialTimeout(), cfg.Car.RPCTimeout(), metricsCollector, log.With("carclient"))
	rentals := rentalsService.NewService(registry, cars, journal, metricsCollector, log.With("rentals"))

	srv, err := supervisor.Listen(supervisor.Config{
		Address:            cfg.Server.Address(),
		AcceptPollInterval: cfg.Server.AcceptPollInterval(),
		Handler: connection.Config{
			RecvPollInterval: cfg.Server.RecvPollInterval(),
			FrameTimeout:     cfg.Server.FrameTimeout(),
		},
	}, rentals, metricsCollector, log.With("supervisor"))
	if err != nil {
		log.Fatal("Failed to start backend: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Serve(gctx)
	})

	if cfg.Admin.Enabled {
		admin := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Admin.Port),
			Handler:      newAdminRouter(cfg, rentals, eventsSource, metricsCollector, log),
			ReadTimeout:  time.Duration(cfg.Admin.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Admin.WriteTimeout) * time.Second,
		}

		g.Go(func() error {
			log.Info("Starting admin server on %s", admin.Addr)
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
			defer cancel()
			return admin.Shutdown(shutdownCtx)
		})
	}

	// Ожидаем сигнал завершения
	<-gctx.Done()
	log.Info("Shutting down backend...")

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			log.Error("Backend stopped with error: %v", err)
			log.Close()
			os.Exit(1)
		}
	case <-time.After(cfg.Server.ShutdownTimeout()):
		log.Error("Backend forced to shutdown after %s", cfg.Server.ShutdownTimeout())
		log.Close()
		os.Exit(1)
	}

	log.Info("Backend stopped gracefully")
}

func openJournalDB(cfg config.JournalConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newAdminRouter(
	cfg *config.Config,
	rentals *rentalsService.Service,
	events *journalRepo.Repository,
	metricsCollector *metrics.Metrics,
	log *logger.Logger,
) *mux.Router {
	r := mux.NewRouter()

	if cfg.MetricsExposed() {
		r.Handle(cfg.Metrics.Path, metricsCollector.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", handlers.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/cars", listCarsHandler.NewHandler(rentals, log).Handle).Methods(http.MethodGet)
	api.HandleFunc("/cars/{car}", getCarHandler.NewHandler(rentals, log).Handle).Methods(http.MethodGet)

	// История доступна только при включенном журнале
	if events != nil {
		api.HandleFunc("/cars/{car}/events", getCarEventsHandler.NewHandler(events, log).Handle).Methods(http.MethodGet)
	}

	return r
}
