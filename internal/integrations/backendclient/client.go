package backendclient

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/protocol/appmsg"
)

// Client клиент App для протокола Backend.
// Одно долгоживущее соединение, запросы отправляются по одному.
type Client struct {
	conn    net.Conn
	userID  uint16
	timeout time.Duration

	mu sync.Mutex
}

// Dial подключается к Backend
func Dial(ctx context.Context, address string, userID uint16, timeout time.Duration) (*Client, error) {
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDial, address, err)
	}
	return &Client{conn: conn, userID: userID, timeout: timeout}, nil
}

// Close закрывает соединение с Backend
func (c *Client) Close() error {
	return c.conn.Close()
}

// Do отправляет произвольный запрос и ждет один ответ
func (c *Client) Do(ctx context.Context, msgType appmsg.MessageType, payload string) (appmsg.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return appmsg.Message{}, fmt.Errorf("%w: set deadline: %v", ErrExchange, err)
	}

	req := appmsg.Message{UserID: c.userID, Type: msgType, Payload: payload}
	if err := appmsg.WriteMessage(c.conn, req); err != nil {
		return appmsg.Message{}, fmt.Errorf("%w: write %s: %v", ErrExchange, msgType, err)
	}

	resp, err := appmsg.ReadMessage(c.conn)
	if err != nil {
		return appmsg.Message{}, fmt.Errorf("%w: read response to %s: %v", ErrExchange, msgType, err)
	}
	return resp, nil
}

// Register регистрирует машину, доступную по адресу car
func (c *Client) Register(ctx context.Context, car string) (appmsg.MessageType, error) {
	return c.status(ctx, appmsg.TypeRegister, car)
}

// StartRental начинает аренду машины
func (c *Client) StartRental(ctx context.Context, car string) (appmsg.MessageType, error) {
	return c.status(ctx, appmsg.TypeStartRental, car)
}

// EndRental завершает аренду машины
func (c *Client) EndRental(ctx context.Context, car string) (appmsg.MessageType, error) {
	return c.status(ctx, appmsg.TypeEndRental, car)
}

// RequestCars возвращает адреса всех зарегистрированных машин
func (c *Client) RequestCars(ctx context.Context) ([]string, error) {
	resp, err := c.Do(ctx, appmsg.TypeRequestCars, "")
	if err != nil {
		return nil, err
	}
	if resp.Type != appmsg.TypeCarList {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, resp.Type)
	}
	return ParseCarList(resp.Payload), nil
}

func (c *Client) status(ctx context.Context, msgType appmsg.MessageType, car string) (appmsg.MessageType, error) {
	resp, err := c.Do(ctx, msgType, car)
	if err != nil {
		return 0, err
	}
	if resp.Type != appmsg.TypeSuccess && !resp.Type.IsError() {
		return resp.Type, fmt.Errorf("%w: %s", ErrUnexpectedResponse, resp.Type)
	}
	return resp.Type, nil
}

// ParseCarList разбирает payload CAR_LIST в список адресов
func ParseCarList(payload string) []string {
	cars := make([]string, 0)
	for _, line := range strings.Split(payload, domain.CarListSeparator) {
		if line = strings.TrimSpace(line); line != "" {
			cars = append(cars, line)
		}
	}
	return cars
}
