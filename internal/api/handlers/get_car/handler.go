package get_car

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/rentals"
)

const (
	msgInvalidCar = "некорректный адрес машины"
	msgNotFound   = "машина не зарегистрирована"
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

// Handle GET /api/v1/cars/{car}, где car имеет вид address:port
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	car, err := domain.ParseCarIdentity(mux.Vars(r)["car"])
	if err != nil {
		h.logger.Warn("GET /cars/{car} - Invalid car: %v", err)
		handlers.RespondBadRequest(w, msgInvalidCar)
		return
	}

	record, err := h.service.GetCar(r.Context(), car)
	if err != nil {
		switch {
		case errors.Is(err, rentals.ErrNotRegistered):
			h.logger.Warn("GET /cars/{car} - Car not found: car=%s", car)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /cars/{car} - Failed to get car: car=%s, error=%v", car, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /cars/{car} - Car retrieved successfully: car=%s, rented=%t", car, record.Rented)
	handlers.RespondJSON(w, http.StatusOK, handlers.ToCarResponse(record))
}
