package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-RentalService/internal/cardevice"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
)

func main() {
	host := pflag.String("host", domain.DefaultBackendHost, "address to listen on")
	port := pflag.Uint16("port", 0, "port to listen on (0 picks a free port)")
	logLevel := pflag.String("log-level", "info", "log level")
	logFile := pflag.String("log-file", "", "duplicate logs to file")
	metricsAddr := pflag.String("metrics-addr", "", "serve Prometheus metrics on this address (disabled when empty)")
	pflag.Parse()

	log, err := logger.New(*logFile, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	opts := []cardevice.Option{
		cardevice.WithAcceptPollInterval(domain.DefaultAcceptPollInterval),
	}

	var metricsCollector *metrics.Metrics
	if *metricsAddr != "" {
		metricsCollector = metrics.New("rental_car")
		opts = append(opts, cardevice.WithMetrics(metricsCollector))
	}

	car, err := cardevice.Listen(net.JoinHostPort(*host, strconv.Itoa(int(*port))), log, opts...)
	if err != nil {
		log.Fatal("Failed to start car: %v", err)
	}

	// Адрес для регистрации машины в Backend
	fmt.Println(car.Addr().String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return car.Serve(gctx)
	})

	if metricsCollector != nil {
		r := mux.NewRouter()
		r.Handle("/metrics", metricsCollector.Handler()).Methods(http.MethodGet)
		metricsSrv := &http.Server{Addr: *metricsAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			log.Info("Car metrics at http://%s/metrics", *metricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), domain.DefaultShutdownTimeout)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Car stopped with error: %v", err)
		log.Close()
		os.Exit(1)
	}
	log.Info("Car stopped")
}
