package handlers

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// CarResponse представление машины в admin API
type CarResponse struct {
	Car          string    `json:"car"`
	Address      string    `json:"address"`
	Port         uint16    `json:"port"`
	Rented       bool      `json:"rented"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ToCarResponse конвертирует запись реестра в ответ API
func ToCarResponse(record domain.CarRecord) CarResponse {
	return CarResponse{
		Car:          record.Identity.String(),
		Address:      record.Identity.Address,
		Port:         record.Identity.Port,
		Rented:       record.Rented,
		RegisteredAt: record.RegisteredAt,
	}
}

// HealthResponse ответ /healthz
type HealthResponse struct {
	Status string `json:"status"`
}
