package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/api/connection"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/netutil"
)

// liveHandler запущенный обработчик и его функция остановки
type liveHandler struct {
	handler *connection.Handler
	stop    context.CancelFunc
}

// Server принимает подключения App и запускает по обработчику на каждое.
// Все обработчики работают с одним сервисом аренды и одним реестром.
type Server struct {
	listener *net.TCPListener
	cfg      Config
	service  connection.RentalService
	metrics  Metrics
	log      Logger

	mu       sync.Mutex
	handlers map[string]*liveHandler
	wg       sync.WaitGroup
}

// Listen открывает порт Backend. metrics может быть nil.
func Listen(cfg Config, service connection.RentalService, metrics Metrics, log Logger) (*Server, error) {
	if cfg.AcceptPollInterval <= 0 {
		cfg.AcceptPollInterval = domain.DefaultAcceptPollInterval
	}

	addr, err := net.ResolveTCPAddr("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", ErrListen, cfg.Address, err)
	}
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrListen, cfg.Address, err)
	}

	return &Server{
		listener: ln,
		cfg:      cfg,
		service:  service,
		metrics:  metrics,
		log:      log,
		handlers: make(map[string]*liveHandler),
	}, nil
}

// Addr адрес, на котором Backend принимает подключения
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// ActiveHandlers число обработчиков, ещё не убранных из набора
func (s *Server) ActiveHandlers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// Serve принимает подключения до отмены ctx.
// При отмене просит остановиться все обработчики, ждет их завершения и только потом закрывает порт.
func (s *Server) Serve(ctx context.Context) error {
	defer s.listener.Close()

	s.log.Info("Supervisor: listening on %s", s.listener.Addr())

	var serveErr error
	for ctx.Err() == nil {
		if err := s.listener.SetDeadline(time.Now().Add(s.cfg.AcceptPollInterval)); err != nil {
			serveErr = fmt.Errorf("%w: set accept deadline: %v", ErrServe, err)
			break
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if netutil.IsTimeout(err) {
				s.reap()
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.log.Error("Supervisor: accept failed: %v", err)
			serveErr = fmt.Errorf("%w: accept: %v", ErrServe, err)
			break
		}

		s.spawn(ctx, conn)
		s.reap()
	}

	s.shutdown()
	return serveErr
}

// spawn запускает обработчик для нового подключения
func (s *Server) spawn(ctx context.Context, conn net.Conn) {
	id := uuid.NewString()
	hctx, stop := context.WithCancel(ctx)
	h := connection.NewHandler(id, conn, s.cfg.Handler, s.service, s.metrics, s.log)

	s.mu.Lock()
	s.handlers[id] = &liveHandler{handler: h, stop: stop}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ConnectionOpened()
	}
	s.log.Info("Supervisor: accepted %s, handler=%s", conn.RemoteAddr(), id)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("Supervisor: handler=%s panicked: %v\n%s", id, r, debug.Stack())
			}
		}()

		if err := h.Serve(hctx); err != nil {
			s.log.Warn("Supervisor: handler=%s finished with error: %v", id, err)
		}
	}()
}

// reap убирает завершившиеся обработчики: сначала собирает их, затем удаляет
func (s *Server) reap() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var finished []string
	for id, lh := range s.handlers {
		if lh.handler.Finished() {
			finished = append(finished, id)
		}
	}

	for _, id := range finished {
		s.handlers[id].stop()
		delete(s.handlers, id)
		if s.metrics != nil {
			s.metrics.ConnectionClosed()
		}
		s.log.Debug("Supervisor: reaped handler=%s", id)
	}
}

// shutdown просит остановиться каждый обработчик и ждет завершения всех
func (s *Server) shutdown() {
	s.mu.Lock()
	live := len(s.handlers)
	for _, lh := range s.handlers {
		lh.stop()
	}
	s.mu.Unlock()

	s.log.Info("Supervisor: stopping %d handlers", live)
	s.wg.Wait()
	s.reap()
	s.log.Info("Supervisor: all handlers finished")
}
