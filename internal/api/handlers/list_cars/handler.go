package list_cars

import (
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
)

type Handler struct {
	service CarService
	logger  Logger
}

func NewHandler(service CarService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/cars
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	cars := h.service.ListCars(r.Context())

	result := make([]handlers.CarResponse, 0, len(cars))
	for _, car := range cars {
		result = append(result, handlers.ToCarResponse(car))
	}

	h.logger.Info("GET /cars - Cars retrieved successfully: count=%d", len(result))
	handlers.RespondJSON(w, http.StatusOK, result)
}
