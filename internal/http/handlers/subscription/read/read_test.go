package read

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/subscription"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Get(ctx context.Context, caller models.Caller, id string) (*models.Subscription, error) {
	args := m.Called(ctx, caller, id)
	if res := args.Get(0); res != nil {
		return res.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	caller := models.Caller{UserID: "u-1", Role: models.RoleUser}

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешное чтение подписки",
			id:   "sub-1",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, caller, "sub-1").
					Return(&models.Subscription{ID: "sub-1", Name: "Netflix", UserID: "u-1"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"name":"Netflix"`,
		},
		{
			name: "подписка не найдена",
			id:   "missing",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, caller, "missing").
					Return(nil, fmt.Errorf("op: %w", repository.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"subscription not found"}`,
		},
		{
			name: "чужая подписка",
			id:   "sub-2",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, caller, "sub-2").
					Return(nil, fmt.Errorf("op: %w", subscription.ErrForbidden))
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"forbidden"`,
		},
		{
			name: "ошибка сервиса чтения",
			id:   "sub-3",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, caller, "sub-3").Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not read subscription"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodGet, "/subscriptions/"+tt.id, nil)
			// Устанавливаем URL params с помощью роутера chi
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithCaller(ctx, caller))

			w := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestReadHandler_Unauthorized(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	w := httptest.NewRecorder()
	New(logger, new(MockService)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscriptions/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
