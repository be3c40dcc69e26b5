// Package metrics метрики Prometheus для Backend и машин
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics набор метрик сервиса.
// Все методы безопасно вызывать на nil (метрики выключены).
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	activeConnections prometheus.Gauge
	carRPCTotal       *prometheus.CounterVec
	carRPCDuration    prometheus.Histogram
	registeredCars    prometheus.Gauge
	rentedCars        prometheus.Gauge
	carCommandsTotal  *prometheus.CounterVec
}

// New создает метрики в собственном реестре с префиксом serviceName
func New(serviceName string) *Metrics {
	ns := sanitize(serviceName)
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "requests_total",
			Help:      "App requests processed by the backend, by request and response type.",
		}, []string{"request", "response"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "request_duration_seconds",
			Help:      "Time spent handling a single App request.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"request"}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "active_connections",
			Help:      "App connections with a live handler.",
		}),
		carRPCTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "car_rpc_total",
			Help:      "Commands sent to car devices, by command and outcome.",
		}, []string{"command", "result"}),
		carRPCDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "car_rpc_duration_seconds",
			Help:      "Round trip time of a command sent to a car device.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2, 5},
		}),
		registeredCars: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "registered_cars",
			Help:      "Cars present in the registry.",
		}),
		rentedCars: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "rented_cars",
			Help:      "Registered cars the backend believes are rented.",
		}),
		carCommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "device_commands_total",
			Help:      "Commands handled by a car device, by command and response.",
		}, []string{"command", "response"}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.activeConnections,
		m.carRPCTotal,
		m.carRPCDuration,
		m.registeredCars,
		m.rentedCars,
		m.carCommandsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler HTTP-обработчик для /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest учитывает обработанный запрос App
func (m *Metrics) ObserveRequest(request, response string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(request, response).Inc()
	m.requestDuration.WithLabelValues(request).Observe(duration.Seconds())
}

// ConnectionOpened увеличивает число активных соединений
func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.activeConnections.Inc()
}

// ConnectionClosed уменьшает число активных соединений
func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.activeConnections.Dec()
}

// ObserveCarRPC учитывает обмен с машиной
func (m *Metrics) ObserveCarRPC(command, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.carRPCTotal.WithLabelValues(command, result).Inc()
	m.carRPCDuration.Observe(duration.Seconds())
}

// SetFleet обновляет число зарегистрированных и арендованных машин
func (m *Metrics) SetFleet(registered, rented int) {
	if m == nil {
		return
	}
	m.registeredCars.Set(float64(registered))
	m.rentedCars.Set(float64(rented))
}

// ObserveDeviceCommand учитывает команду, обработанную машиной
func (m *Metrics) ObserveDeviceCommand(command, response string) {
	if m == nil {
		return
	}
	m.carCommandsTotal.WithLabelValues(command, response).Inc()
}

func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
