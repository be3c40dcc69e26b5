package connection

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/protocol/appmsg"
	"github.com/m04kA/SMC-RentalService/pkg/netutil"
)

// Config тайминги обработчика
type Config struct {
	// RecvPollInterval как часто проверять остановку при ожидании запроса
	RecvPollInterval time.Duration
	// FrameTimeout за сколько должно прийти начатое сообщение целиком
	FrameTimeout time.Duration
}

// Handler обрабатывает запросы одного подключения App.
// Запросы обрабатываются строго по одному в порядке поступления.
type Handler struct {
	id      string
	conn    net.Conn
	reader  *bufio.Reader
	cfg     Config
	service RentalService
	metrics Metrics
	log     Logger

	done     chan struct{}
	finished atomic.Bool
}

// NewHandler создает обработчик для принятого соединения.
// metrics может быть nil.
func NewHandler(id string, conn net.Conn, cfg Config, service RentalService, metrics Metrics, log Logger) *Handler {
	if cfg.RecvPollInterval <= 0 {
		cfg.RecvPollInterval = domain.DefaultRecvPollInterval
	}
	if cfg.FrameTimeout <= 0 {
		cfg.FrameTimeout = domain.DefaultFrameTimeout
	}
	return &Handler{
		id:      id,
		conn:    conn,
		reader:  bufio.NewReader(conn),
		cfg:     cfg,
		service: service,
		metrics: metrics,
		log:     log,
		done:    make(chan struct{}),
	}
}

// ID идентификатор обработчика
func (h *Handler) ID() string {
	return h.id
}

// Done закрывается, когда обработчик завершил работу
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// Finished сообщает, что обработчик завершил работу
func (h *Handler) Finished() bool {
	return h.finished.Load()
}

// Serve обрабатывает запросы, пока клиент не отключится или не отменят ctx.
// Отмена ctx - кооперативная: текущий запрос (включая обмен с машиной) доводится до конца.
// Штатный разрыв соединения ошибкой не считается.
func (h *Handler) Serve(ctx context.Context) error {
	defer func() {
		if cerr := h.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			h.log.Warn("Handler[%s]: close: %v", h.id, cerr)
		}
		h.finished.Store(true)
		close(h.done)
	}()

	h.log.Info("Handler[%s]: serving %s", h.id, h.conn.RemoteAddr())

	for {
		req, err := h.receive(ctx)
		switch {
		case err == nil:
		case errors.Is(err, errStopRequested):
			h.log.Info("Handler[%s]: stop requested", h.id)
			return nil
		case netutil.IsExpectedCloseError(err):
			h.log.Info("Handler[%s]: client %s disconnected", h.id, h.conn.RemoteAddr())
			return nil
		case errors.Is(err, appmsg.ErrMalformed):
			// Заголовок или payload не дошли вовремя либо payload не UTF-8
			h.log.Warn("Handler[%s]: malformed request: %v", h.id, err)
			if werr := h.respond(appmsg.Message{UserID: req.UserID, Type: appmsg.TypeBadFormat}); werr != nil {
				return h.transportError(werr)
			}
			h.observe(req.Type, appmsg.TypeBadFormat, time.Now())
			if netutil.IsTimeout(err) {
				// Остаток кадра может прийти позже: граница следующего сообщения потеряна
				h.log.Warn("Handler[%s]: incomplete frame from %s, closing connection", h.id, h.conn.RemoteAddr())
				return nil
			}
			continue
		default:
			return h.transportError(err)
		}

		start := time.Now()
		h.log.Debug("Handler[%s]: received %s", h.id, req)

		resp := h.dispatch(ctx, req)
		if werr := h.respond(resp); werr != nil {
			return h.transportError(werr)
		}
		h.observe(req.Type, resp.Type, start)
	}
}

// receive ждет начала следующего сообщения, периодически проверяя ctx, затем читает его целиком
func (h *Handler) receive(ctx context.Context) (appmsg.Message, error) {
	for {
		if ctx.Err() != nil {
			return appmsg.Message{}, errStopRequested
		}
		if err := h.conn.SetReadDeadline(time.Now().Add(h.cfg.RecvPollInterval)); err != nil {
			return appmsg.Message{}, err
		}
		if _, err := h.reader.Peek(1); err != nil {
			if netutil.IsTimeout(err) {
				continue
			}
			return appmsg.Message{}, err
		}
		break
	}

	if err := h.conn.SetReadDeadline(time.Now().Add(h.cfg.FrameTimeout)); err != nil {
		return appmsg.Message{}, err
	}
	return appmsg.ReadMessage(h.reader)
}

func (h *Handler) dispatch(ctx context.Context, req appmsg.Message) appmsg.Message {
	var (
		respType appmsg.MessageType
		payload  string
		err      error
	)

	if req.Type.IsRequest() {
		respType, payload, err = h.execute(ctx, req)
	} else {
		err = fmt.Errorf("%w: %s", ErrUnknownType, req.Type)
	}

	if err != nil {
		respType = responseFor(err)
		h.log.Warn("Handler[%s]: %s user=%d payload=%q -> %s: %v",
			h.id, req.Type, req.UserID, req.Payload, respType, err)
	} else {
		h.log.Info("Handler[%s]: %s user=%d -> %s", h.id, req.Type, req.UserID, respType)
	}

	return appmsg.Message{UserID: req.UserID, Type: respType, Payload: payload}
}

// execute выполняет запрос, который Backend обрабатывает
func (h *Handler) execute(ctx context.Context, req appmsg.Message) (appmsg.MessageType, string, error) {
	switch req.Type {
	case appmsg.TypeRegister:
		return appmsg.TypeSuccess, "", h.withCar(req, func(car domain.CarIdentity) error {
			return h.service.Register(ctx, req.UserID, car)
		})
	case appmsg.TypeRequestCars:
		return appmsg.TypeCarList, h.carList(ctx), nil
	case appmsg.TypeStartRental:
		return appmsg.TypeSuccess, "", h.withCar(req, func(car domain.CarIdentity) error {
			return h.service.StartRental(ctx, req.UserID, car)
		})
	case appmsg.TypeEndRental:
		return appmsg.TypeSuccess, "", h.withCar(req, func(car domain.CarIdentity) error {
			return h.service.EndRental(ctx, req.UserID, car)
		})
	}
	return 0, "", fmt.Errorf("%w: %s", ErrUnknownType, req.Type)
}

// withCar разбирает "address:port" из payload и вызывает операцию
func (h *Handler) withCar(req appmsg.Message, op func(car domain.CarIdentity) error) error {
	if req.Payload == "" {
		return fmt.Errorf("%w: empty car address", ErrMalformed)
	}
	car, err := domain.ParseCarIdentity(req.Payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return op(car)
}

// carList собирает payload CAR_LIST: по строке "address:port\n" на машину.
// Статус аренды в список не входит.
func (h *Handler) carList(ctx context.Context) string {
	cars := h.service.ListCars(ctx)

	var b strings.Builder
	for i, car := range cars {
		line := car.Identity.String() + domain.CarListSeparator
		if b.Len()+len(line) > appmsg.MaxPayloadLength {
			h.log.Warn("Handler[%s]: car list truncated to %d of %d cars", h.id, i, len(cars))
			break
		}
		b.WriteString(line)
	}
	return b.String()
}

func (h *Handler) respond(resp appmsg.Message) error {
	if err := h.conn.SetWriteDeadline(time.Now().Add(h.cfg.FrameTimeout)); err != nil {
		return err
	}
	return appmsg.WriteMessage(h.conn, resp)
}

func (h *Handler) transportError(err error) error {
	if netutil.IsExpectedCloseError(err) {
		h.log.Info("Handler[%s]: client %s disconnected: %v", h.id, h.conn.RemoteAddr(), err)
		return nil
	}
	h.log.Error("Handler[%s]: transport failure: %v", h.id, err)
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func (h *Handler) observe(req, resp appmsg.MessageType, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.ObserveRequest(req.String(), resp.String(), time.Since(start))
}
