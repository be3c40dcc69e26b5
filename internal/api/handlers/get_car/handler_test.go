package get_car

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/rentals"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) GetCar(ctx context.Context, car domain.CarIdentity) (domain.CarRecord, error) {
	args := m.Called(ctx, car)
	return args.Get(0).(domain.CarRecord), args.Error(1)
}

func serve(h *Handler, car string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/cars/{car}", h.Handle)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cars/"+car, nil))
	return rec
}

func TestHandle(t *testing.T) {
	car := domain.CarIdentity{Address: "127.0.0.1", Port: 7001}

	tests := []struct {
		name       string
		path       string
		setup      func(m *mockService)
		wantStatus int
	}{
		{
			name: "found",
			path: "127.0.0.1:7001",
			setup: func(m *mockService) {
				m.On("GetCar", mock.Anything, car).Return(domain.CarRecord{Identity: car, Rented: true}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "not registered",
			path: "127.0.0.1:7001",
			setup: func(m *mockService) {
				m.On("GetCar", mock.Anything, car).
					Return(domain.CarRecord{}, fmt.Errorf("%w: %s", rentals.ErrNotRegistered, car))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "internal error",
			path: "127.0.0.1:7001",
			setup: func(m *mockService) {
				m.On("GetCar", mock.Anything, car).Return(domain.CarRecord{}, rentals.ErrInternal)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "invalid port",
			path:       "127.0.0.1:0",
			setup:      func(*mockService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			tt.setup(svc)

			rec := serve(NewHandler(svc, logger.Nop()), tt.path)

			require.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandleBody(t *testing.T) {
	car := domain.CarIdentity{Address: "127.0.0.1", Port: 7001}
	svc := &mockService{}
	svc.On("GetCar", mock.Anything, car).Return(domain.CarRecord{Identity: car, Rented: true}, nil)

	rec := serve(NewHandler(svc, logger.Nop()), car.String())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"car":"127.0.0.1:7001"`)
	assert.Contains(t, rec.Body.String(), `"rented":true`)
}
