package cardevice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/protocol/carmsg"
	"github.com/m04kA/SMC-RentalService/pkg/netutil"
)

const (
	defaultAcceptPollInterval = time.Second
	defaultCommandTimeout     = 2 * time.Second
)

// Server сетевое устройство машины: одна команда на одно соединение
type Server struct {
	listener *net.TCPListener
	state    *State

	acceptPollInterval time.Duration
	commandTimeout     time.Duration

	metrics Metrics
	log     Logger

	wg sync.WaitGroup
}

// Option настройка Server
type Option func(*Server)

// WithAcceptPollInterval задает период проверки остановки в цикле accept
func WithAcceptPollInterval(d time.Duration) Option {
	return func(s *Server) { s.acceptPollInterval = d }
}

// WithCommandTimeout задает время ожидания команды после подключения
func WithCommandTimeout(d time.Duration) Option {
	return func(s *Server) { s.commandTimeout = d }
}

// WithMetrics подключает метрики
func WithMetrics(m Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Listen открывает TCP-порт машины. Порт 0 - выбрать свободный.
func Listen(address string, log Logger, opts ...Option) (*Server, error) {
	addr, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", ErrListen, address, err)
	}
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrListen, address, err)
	}

	s := &Server{
		listener:           ln,
		state:              &State{},
		acceptPollInterval: defaultAcceptPollInterval,
		commandTimeout:     defaultCommandTimeout,
		log:                log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Addr адрес, на котором машина принимает команды
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// State состояние машины
func (s *Server) State() *State {
	return s.state
}

// Serve принимает соединения до отмены ctx.
// После отмены дожидается текущих соединений и закрывает порт.
func (s *Server) Serve(ctx context.Context) error {
	defer s.listener.Close()
	defer s.wg.Wait()

	s.log.Info("Car: listening on %s", s.listener.Addr())

	for {
		if ctx.Err() != nil {
			s.log.Info("Car: shutting down")
			return nil
		}

		if err := s.listener.SetDeadline(time.Now().Add(s.acceptPollInterval)); err != nil {
			return fmt.Errorf("%w: set accept deadline: %v", ErrServe, err)
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if netutil.IsTimeout(err) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("Car: accept failed: %v", err)
			return fmt.Errorf("%w: accept: %v", ErrServe, err)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

// Close закрывает порт машины, прерывая Serve
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(s.commandTimeout)); err != nil {
		s.log.Warn("Car: set deadline for %s: %v", conn.RemoteAddr(), err)
		return
	}

	cmd, err := carmsg.ReadMessage(conn)
	if err != nil {
		s.log.Warn("Car: bad command from %s: %v", conn.RemoteAddr(), err)
		return
	}

	resp := s.state.Apply(cmd)
	s.log.Info("Car: %s from %s -> %s (rented=%t)", cmd.Code, conn.RemoteAddr(), resp, s.state.Rented())
	if s.metrics != nil {
		s.metrics.ObserveDeviceCommand(cmd.Code.String(), resp.Code.String())
	}

	if err := carmsg.WriteMessage(conn, resp); err != nil {
		s.log.Warn("Car: failed to respond to %s: %v", conn.RemoteAddr(), err)
	}
}
