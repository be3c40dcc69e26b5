package carclient

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/protocol/carmsg"
	"github.com/m04kA/SMC-RentalService/pkg/netutil"
)

// Client синхронный RPC к машинам: одно соединение на одну команду
type Client struct {
	dialTimeout time.Duration
	rpcTimeout  time.Duration
	metrics     Metrics
	log         Logger
}

// NewClient создает новый экземпляр клиента машин.
// metrics может быть nil.
func NewClient(dialTimeout, rpcTimeout time.Duration, metrics Metrics, log Logger) *Client {
	return &Client{
		dialTimeout: dialTimeout,
		rpcTimeout:  rpcTimeout,
		metrics:     metrics,
		log:         log,
	}
}

// Send отправляет команду машине и ждет один ответ.
// Ошибки наружу не возвращаются: при недоступности машины ответ FAIL/NONE.
func (c *Client) Send(ctx context.Context, car domain.CarIdentity, cmd carmsg.Message) carmsg.Message {
	start := time.Now()

	resp, err := c.exchange(ctx, car, cmd)
	if err != nil {
		c.log.Warn("SendToCar: car=%s command=%s unavailable: %v", car, cmd.Code, err)
		resp = carmsg.Fail(carmsg.ReasonNone)
		c.observe(cmd, "unavailable", start)
		return resp
	}

	c.log.Info("SendToCar: car=%s command=%s response=%s", car, cmd.Code, resp)
	c.observe(cmd, resp.Code.String(), start)
	return resp
}

func (c *Client) exchange(ctx context.Context, car domain.CarIdentity, cmd carmsg.Message) (carmsg.Message, error) {
	dialer := &net.Dialer{Timeout: c.dialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", car.String())
	if err != nil {
		return carmsg.Message{}, fmt.Errorf("%w: %v", ErrDial, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.rpcTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return carmsg.Message{}, fmt.Errorf("%w: set deadline: %v", ErrExchange, err)
	}

	if err := carmsg.WriteMessage(conn, cmd); err != nil {
		return carmsg.Message{}, fmt.Errorf("%w: write: %v", ErrExchange, err)
	}

	resp, err := carmsg.ReadMessage(conn)
	if err != nil {
		if netutil.IsTimeout(err) {
			return carmsg.Message{}, fmt.Errorf("%w: no response within %s", ErrExchange, c.rpcTimeout)
		}
		return carmsg.Message{}, fmt.Errorf("%w: read: %v", ErrExchange, err)
	}

	return resp, nil
}

func (c *Client) observe(cmd carmsg.Message, result string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.ObserveCarRPC(cmd.Code.String(), result, time.Since(start))
}
