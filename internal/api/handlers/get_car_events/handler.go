package get_car_events

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/domain"
)

const (
	msgInvalidCar   = "некорректный адрес машины"
	msgInvalidLimit = "некорректный параметр limit"
)

type Handler struct {
	journal EventJournal
	logger  Logger
}

func NewHandler(journal EventJournal, logger Logger) *Handler {
	return &Handler{
		journal: journal,
		logger:  logger,
	}
}

// Handle GET /api/v1/cars/{car}/events
// Query params: limit (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	car, err := domain.ParseCarIdentity(mux.Vars(r)["car"])
	if err != nil {
		h.logger.Warn("GET /cars/{car}/events - Invalid car: %v", err)
		handlers.RespondBadRequest(w, msgInvalidCar)
		return
	}

	limit, err := ParseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.logger.Warn("GET /cars/{car}/events - Invalid limit: %v", err)
		handlers.RespondBadRequest(w, msgInvalidLimit)
		return
	}

	// Журнал хранит и события машин, которых уже нет в реестре
	events, err := h.journal.ListByCar(r.Context(), car, limit)
	if err != nil {
		h.logger.Error("GET /cars/{car}/events - Failed to list events: car=%s, error=%v", car, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /cars/{car}/events - Events retrieved successfully: car=%s, count=%d", car, len(events))
	handlers.RespondJSON(w, http.StatusOK, ToEventResponses(events))
}
