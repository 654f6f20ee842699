package remove

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
	services "github.com/magabrotheeeer/subscription-tracker/internal/services/auth"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) DeleteUser(ctx context.Context, caller models.Caller, id string) error {
	args := m.Called(ctx, caller, id)
	return args.Error(0)
}

func TestRemoveHandler(t *testing.T) {
	admin := models.Caller{UserID: "a-1", Role: models.RoleAdmin}
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"deleted", nil, http.StatusOK, `"deletedUserId":"u-1"`},
		{"forbidden", fmt.Errorf("op: %w", services.ErrForbidden), http.StatusForbidden, "forbidden"},
		{"not found", fmt.Errorf("op: %w", repository.ErrNotFound), http.StatusNotFound, "user not found"},
		{"internal error", errors.New("db error"), http.StatusInternalServerError, "could not delete user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("DeleteUser", mock.Anything, admin, "u-1").Return(tt.err).Once()

			req := httptest.NewRequest(http.MethodDelete, "/users/u-1", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "u-1")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithCaller(ctx, admin))
			w := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			svc.AssertExpectations(t)
		})
	}
}

func TestRemoveHandler_NoCaller(t *testing.T) {
	svc := new(ServiceMock)
	req := httptest.NewRequest(http.MethodDelete, "/users/u-1", nil)
	w := httptest.NewRecorder()

	New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything, mock.Anything)
}
