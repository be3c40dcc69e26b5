package get_car_events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
)

type mockJournal struct {
	mock.Mock
}

func (m *mockJournal) ListByCar(ctx context.Context, car domain.CarIdentity, limit uint64) ([]domain.RentalEvent, error) {
	args := m.Called(ctx, car, limit)
	events, _ := args.Get(0).([]domain.RentalEvent)
	return events, args.Error(1)
}

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/cars/{car}/events", h.Handle)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandle(t *testing.T) {
	car := domain.CarIdentity{Address: "127.0.0.1", Port: 7001}
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	journal := &mockJournal{}
	journal.On("ListByCar", mock.Anything, car, uint64(10)).Return([]domain.RentalEvent{
		{ID: 2, Car: car, UserID: 5, Type: domain.EventRentalEnded, CreatedAt: createdAt},
		{ID: 1, Car: car, UserID: 5, Type: domain.EventRentalStarted, CreatedAt: createdAt},
	}, nil)

	rec := serve(NewHandler(journal, logger.Nop()), "/api/v1/cars/127.0.0.1:7001/events?limit=10")

	require.Equal(t, http.StatusOK, rec.Code)

	var body []EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, int64(2), body[0].ID)
	assert.Equal(t, "rental_ended", body[0].Event)
	assert.Equal(t, "127.0.0.1:7001", body[1].Car)
	journal.AssertExpectations(t)
}

func TestHandleDefaultLimit(t *testing.T) {
	car := domain.CarIdentity{Address: "127.0.0.1", Port: 7001}
	journal := &mockJournal{}
	journal.On("ListByCar", mock.Anything, car, uint64(defaultLimit)).Return(nil, nil)

	rec := serve(NewHandler(journal, logger.Nop()), "/api/v1/cars/127.0.0.1:7001/events")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	journal.AssertExpectations(t)
}

func TestHandleErrors(t *testing.T) {
	t.Run("invalid limit", func(t *testing.T) {
		journal := &mockJournal{}
		rec := serve(NewHandler(journal, logger.Nop()), "/api/v1/cars/127.0.0.1:7001/events?limit=abc")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		journal.AssertNotCalled(t, "ListByCar", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid car", func(t *testing.T) {
		journal := &mockJournal{}
		rec := serve(NewHandler(journal, logger.Nop()), "/api/v1/cars/no-port/events")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("journal failure", func(t *testing.T) {
		journal := &mockJournal{}
		journal.On("ListByCar", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
		rec := serve(NewHandler(journal, logger.Nop()), "/api/v1/cars/127.0.0.1:7001/events")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestParseLimit(t *testing.T) {
	limit, err := ParseLimit("")
	require.NoError(t, err)
	assert.Equal(t, uint64(defaultLimit), limit)

	limit, err = ParseLimit("500")
	require.NoError(t, err)
	assert.Equal(t, uint64(500), limit)

	for _, raw := range []string{"0", "501", "-1", "x"} {
		_, err := ParseLimit(raw)
		assert.Error(t, err, raw)
	}
}
