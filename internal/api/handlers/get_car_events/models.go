package get_car_events

import (
	"fmt"
	"strconv"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// EventResponse событие журнала аренды
type EventResponse struct {
	ID        int64     `json:"id"`
	Car       string    `json:"car"`
	UserID    uint16    `json:"user_id"`
	Event     string    `json:"event"`
	CreatedAt time.Time `json:"created_at"`
}

func ToEventResponses(events []domain.RentalEvent) []EventResponse {
	result := make([]EventResponse, 0, len(events))
	for _, e := range events {
		result = append(result, EventResponse{
			ID:        e.ID,
			Car:       e.Car.String(),
			UserID:    e.UserID,
			Event:     string(e.Type),
			CreatedAt: e.CreatedAt,
		})
	}
	return result
}

// ParseLimit разбирает query параметр limit (1..500, по умолчанию 50)
func ParseLimit(raw string) (uint64, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid limit value: %w", err)
	}
	if limit == 0 || limit > maxLimit {
		return 0, fmt.Errorf("limit must be in [1, %d], got %d", maxLimit, limit)
	}
	return limit, nil
}
