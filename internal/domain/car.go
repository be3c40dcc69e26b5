package domain

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// CarIdentity идентифицирует машину по адресу, на котором она слушает.
// Ключ реестра - буквальная пара (address, port), без разрешения имен.
type CarIdentity struct {
	Address string
	Port    uint16
}

// ParseCarIdentity разбирает строку "address:port", которую сообщает машина
func ParseCarIdentity(raw string) (CarIdentity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CarIdentity{}, fmt.Errorf("%w: empty value", ErrInvalidCarAddress)
	}

	host, portStr, err := net.SplitHostPort(raw)
	if err != nil {
		return CarIdentity{}, fmt.Errorf("%w: %q: %v", ErrInvalidCarAddress, raw, err)
	}
	if host == "" {
		return CarIdentity{}, fmt.Errorf("%w: %q: missing host", ErrInvalidCarAddress, raw)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return CarIdentity{}, fmt.Errorf("%w: %q: invalid port", ErrInvalidCarAddress, raw)
	}

	return CarIdentity{Address: host, Port: uint16(port)}, nil
}

// String возвращает идентификатор в виде "address:port"
func (c CarIdentity) String() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(int(c.Port)))
}

// Less упорядочивает по адресу, затем по порту
func (c CarIdentity) Less(other CarIdentity) bool {
	if c.Address != other.Address {
		return c.Address < other.Address
	}
	return c.Port < other.Port
}

// CarRecord закешированное в Backend состояние зарегистрированной машины.
// Источник истины по флагу аренды - сама машина.
type CarRecord struct {
	Identity     CarIdentity
	Rented       bool
	RegisteredAt time.Time
}

// RentalEventType тип события в журнале аренды
type RentalEventType string

const (
	EventCarRegistered      RentalEventType = "car_registered"
	EventRentalStarted      RentalEventType = "rental_started"
	EventRentalEnded        RentalEventType = "rental_ended"
	EventReconciledRented   RentalEventType = "reconciled_rented"
	EventReconciledReturned RentalEventType = "reconciled_available"
)

// RentalEvent запись журнала аренды
type RentalEvent struct {
	ID        int64
	Car       CarIdentity
	UserID    uint16
	Type      RentalEventType
	CreatedAt time.Time
}
