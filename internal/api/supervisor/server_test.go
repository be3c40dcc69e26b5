package supervisor

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/api/connection"
	"github.com/m04kA/SMC-RentalService/internal/cardevice"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/infra/storage/registry"
	"github.com/m04kA/SMC-RentalService/internal/integrations/backendclient"
	"github.com/m04kA/SMC-RentalService/internal/integrations/carclient"
	"github.com/m04kA/SMC-RentalService/internal/protocol/appmsg"
	"github.com/m04kA/SMC-RentalService/internal/protocol/carmsg"
	"github.com/m04kA/SMC-RentalService/internal/service/rentals"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
)

type backend struct {
	server   *Server
	registry *registry.Repository
	metrics  *metrics.Metrics
	cancel   context.CancelFunc
	done     chan error
}

func startBackend(t *testing.T) *backend {
	t.Helper()

	log := logger.Nop()
	m := metrics.New("test")
	repo := registry.NewRepository()
	cars := carclient.NewClient(500*time.Millisecond, 500*time.Millisecond, m, log)
	svc := rentals.NewService(repo, cars, nil, m, log)

	srv, err := Listen(Config{
		Address:            "127.0.0.1:0",
		AcceptPollInterval: 20 * time.Millisecond,
		Handler: connection.Config{
			RecvPollInterval: 20 * time.Millisecond,
			FrameTimeout:     200 * time.Millisecond,
		},
	}, svc, m, log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	b := &backend{server: srv, registry: repo, metrics: m, cancel: cancel, done: make(chan error, 1)}
	go func() { b.done <- srv.Serve(ctx) }()

	t.Cleanup(b.stop)
	return b
}

func (b *backend) stop() {
	b.cancel()
	select {
	case err := <-b.done:
		b.done <- err
	case <-time.After(5 * time.Second):
	}
}

func startCar(t *testing.T) (*cardevice.Server, string) {
	t.Helper()

	car, err := cardevice.Listen("127.0.0.1:0", logger.Nop(), cardevice.WithAcceptPollInterval(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = car.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return car, car.Addr().String()
}

func dial(t *testing.T, b *backend, userID uint16) *backendclient.Client {
	t.Helper()
	client, err := backendclient.Dial(context.Background(), b.server.Addr().String(), userID, 3*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func unreachableAddress(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestRegisterTwice(t *testing.T) {
	b := startBackend(t)
	_, carAddr := startCar(t)
	client := dial(t, b, 1)
	ctx := context.Background()

	status, err := client.Register(ctx, carAddr)
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeSuccess, status)

	status, err = client.Register(ctx, carAddr)
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeAlreadyRegistered, status)
}

func TestStartRentalUnregistered(t *testing.T) {
	b := startBackend(t)
	client := dial(t, b, 1)

	status, err := client.StartRental(context.Background(), "127.0.0.1:9999")
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeNotRegistered, status)
}

func TestFullRentalLifecycle(t *testing.T) {
	b := startBackend(t)
	car, carAddr := startCar(t)
	client := dial(t, b, 5)
	ctx := context.Background()

	id, err := domain.ParseCarIdentity(carAddr)
	require.NoError(t, err)

	status, err := client.Register(ctx, carAddr)
	require.NoError(t, err)
	require.Equal(t, appmsg.TypeSuccess, status)

	status, err = client.StartRental(ctx, carAddr)
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeSuccess, status)
	record, err := b.registry.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, record.Rented)
	assert.True(t, car.State().Rented())

	status, err = client.StartRental(ctx, carAddr)
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeAlreadyRented, status)

	status, err = client.EndRental(ctx, carAddr)
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeSuccess, status)
	record, err = b.registry.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, record.Rented)
	assert.False(t, car.State().Rented())

	status, err = client.EndRental(ctx, carAddr)
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeNotRented, status)
}

func TestReconciliationWhenCarRentedElsewhere(t *testing.T) {
	b := startBackend(t)
	car, carAddr := startCar(t)
	client := dial(t, b, 5)
	ctx := context.Background()

	status, err := client.Register(ctx, carAddr)
	require.NoError(t, err)
	require.Equal(t, appmsg.TypeSuccess, status)

	// Машину арендовали в обход Backend
	car.State().Apply(carmsg.Command(carmsg.CodeStartRental))

	status, err = client.StartRental(ctx, carAddr)
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeAlreadyRented, status)

	id, err := domain.ParseCarIdentity(carAddr)
	require.NoError(t, err)
	record, err := b.registry.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, record.Rented)

	status, err = client.EndRental(ctx, carAddr)
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeSuccess, status)
}

func TestRequestCars(t *testing.T) {
	b := startBackend(t)
	_, first := startCar(t)
	_, second := startCar(t)
	client := dial(t, b, 1)
	ctx := context.Background()

	for _, addr := range []string{first, second} {
		status, err := client.Register(ctx, addr)
		require.NoError(t, err)
		require.Equal(t, appmsg.TypeSuccess, status)
	}

	resp, err := client.Do(ctx, appmsg.TypeRequestCars, "")
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeCarList, resp.Type)

	cars := backendclient.ParseCarList(resp.Payload)
	assert.ElementsMatch(t, []string{first, second}, cars)

	var want string
	for _, car := range b.registry.List(ctx) {
		want += car.Identity.String() + "\n"
	}
	assert.Equal(t, want, resp.Payload)
}

func TestConcurrentRegistration(t *testing.T) {
	b := startBackend(t)
	ctx := context.Background()

	const n = 10
	addrs := make([]string, n)
	for i := range addrs {
		_, addrs[i] = startCar(t)
	}

	var wg sync.WaitGroup
	statuses := make([]appmsg.MessageType, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client, err := backendclient.Dial(ctx, b.server.Addr().String(), uint16(i), 3*time.Second)
			if err != nil {
				errs[i] = err
				return
			}
			defer client.Close()
			statuses[i], errs[i] = client.Register(ctx, addrs[i])
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, appmsg.TypeSuccess, statuses[i])
	}

	registered := b.registry.List(ctx)
	require.Len(t, registered, n)

	got := make([]string, 0, n)
	for _, car := range registered {
		got = append(got, car.Identity.String())
	}
	sort.Strings(got)
	sort.Strings(addrs)
	assert.Equal(t, addrs, got)
}

func TestRegisterUnreachableCar(t *testing.T) {
	b := startBackend(t)
	client := dial(t, b, 1)

	status, err := client.Register(context.Background(), unreachableAddress(t))
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeCarUnavailable, status)
	assert.Empty(t, b.registry.List(context.Background()))
}

func TestRentalOnStoppedCar(t *testing.T) {
	b := startBackend(t)
	car, carAddr := startCar(t)
	client := dial(t, b, 1)
	ctx := context.Background()

	status, err := client.Register(ctx, carAddr)
	require.NoError(t, err)
	require.Equal(t, appmsg.TypeSuccess, status)

	require.NoError(t, car.Close())

	status, err = client.StartRental(ctx, carAddr)
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeCarUnavailable, status)

	// Машина остается в реестре
	assert.Len(t, b.registry.List(ctx), 1)
}

func TestErrorResponses(t *testing.T) {
	b := startBackend(t)
	client := dial(t, b, 9)
	ctx := context.Background()

	resp, err := client.Do(ctx, appmsg.TypeRegister, "")
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeBadFormat, resp.Type)
	assert.Equal(t, uint16(9), resp.UserID)

	resp, err = client.Do(ctx, appmsg.TypePostCar, "127.0.0.1:1")
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeInvalidType, resp.Type)

	resp, err = client.Do(ctx, appmsg.MessageType(100), "")
	require.NoError(t, err)
	assert.Equal(t, appmsg.TypeInvalidType, resp.Type)
}

func TestHandlersAreReapedAfterDisconnect(t *testing.T) {
	b := startBackend(t)

	for i := 0; i < 3; i++ {
		client, err := backendclient.Dial(context.Background(), b.server.Addr().String(), 1, time.Second)
		require.NoError(t, err)
		_, err = client.RequestCars(context.Background())
		require.NoError(t, err)
		require.NoError(t, client.Close())
	}

	require.Eventually(t, func() bool {
		return b.server.ActiveHandlers() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownWithIdleClients(t *testing.T) {
	b := startBackend(t)
	idle := dial(t, b, 1)
	_ = dial(t, b, 2)

	_, err := idle.RequestCars(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return b.server.ActiveHandlers() == 2
	}, time.Second, 10*time.Millisecond)

	b.cancel()
	select {
	case err := <-b.done:
		require.NoError(t, err)
		b.done <- err
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}

	assert.Equal(t, 0, b.server.ActiveHandlers())

	_, err = net.DialTimeout("tcp", b.server.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err, fmt.Sprintf("listener %s must be closed", b.server.Addr()))
}

// panickingService падает при регистрации, остальные запросы обслуживает
type panickingService struct{}

func (panickingService) Register(context.Context, uint16, domain.CarIdentity) error {
	panic("registry exploded")
}

func (panickingService) ListCars(context.Context) []domain.CarRecord { return nil }

func (panickingService) StartRental(context.Context, uint16, domain.CarIdentity) error { return nil }

func (panickingService) EndRental(context.Context, uint16, domain.CarIdentity) error { return nil }

func TestSupervisorSurvivesHandlerPanic(t *testing.T) {
	srv, err := Listen(Config{
		Address:            "127.0.0.1:0",
		AcceptPollInterval: 20 * time.Millisecond,
		Handler: connection.Config{
			RecvPollInterval: 20 * time.Millisecond,
			FrameTimeout:     200 * time.Millisecond,
		},
	}, panickingService{}, nil, logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	})

	failing, err := backendclient.Dial(ctx, srv.Addr().String(), 1, time.Second)
	require.NoError(t, err)
	defer failing.Close()

	// Обработчик упал и закрыл соединение без ответа
	_, err = failing.Register(ctx, "127.0.0.1:7001")
	require.Error(t, err)

	healthy, err := backendclient.Dial(ctx, srv.Addr().String(), 2, time.Second)
	require.NoError(t, err)

	cars, err := healthy.RequestCars(ctx)
	require.NoError(t, err)
	assert.Empty(t, cars)
	require.NoError(t, healthy.Close())

	require.Eventually(t, func() bool {
		return srv.ActiveHandlers() == 0
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("supervisor stopped after handler panic: %v", err)
	default:
	}
}
