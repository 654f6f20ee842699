package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	services "github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, name, email, password string) (*services.Session, error) {
	args := m.Called(ctx, name, email, password)
	resp, _ := args.Get(0).(*services.Session)
	return resp, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	valid := Request{Name: "John", Email: "john@example.com", Password: "secret123"}

	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(m *ServiceMock)
		wantStatusCode int
		wantBody       string
	}{
		{
			name:        "registered",
			requestBody: valid,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, "John", "john@example.com", "secret123").
					Return(&services.Session{Token: "tok", User: &models.User{ID: "u-1"}}, nil).Once()
			},
			wantStatusCode: http.StatusCreated,
			wantBody:       `"token":"tok"`,
		},
		{
			name:           "invalid json",
			requestBody:    "not a json",
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       "invalid request body",
		},
		{
			name:           "invalid email",
			requestBody:    Request{Name: "John", Email: "nope", Password: "secret123"},
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantBody:       "field Email must be a valid email",
		},
		{
			name:           "short password",
			requestBody:    Request{Name: "John", Email: "john@example.com", Password: "123"},
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantBody:       "field Password must be at least 6 characters",
		},
		{
			name:        "duplicate",
			requestBody: valid,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, "John", "john@example.com", "secret123").
					Return(nil, services.ErrUserExists).Once()
			},
			wantStatusCode: http.StatusConflict,
			wantBody:       "user already exists",
		},
		{
			name:        "service error",
			requestBody: valid,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, "John", "john@example.com", "secret123").
					Return(nil, errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       "could not register user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			var body []byte
			if s, ok := tt.requestBody.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.requestBody)
			}
			req := httptest.NewRequest(http.MethodPost, "/auth/sign-up", bytes.NewReader(body))
			w := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "secret123")
			svc.AssertExpectations(t)
		})
	}
}
