package userlist

import (
	"context"
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
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListByUser(ctx context.Context, caller models.Caller, userID string, f models.ListFilter) (*models.Page, error) {
	args := m.Called(ctx, caller, userID, f)
	if res := args.Get(0); res != nil {
		return res.(*models.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestUserListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	caller := models.Caller{UserID: "u-1", Role: models.RoleUser}

	tests := []struct {
		name           string
		userID         string
		setupMock      func(m *MockService)
		expectedStatus int
	}{
		{
			name:   "own subscriptions",
			userID: "u-1",
			setupMock: func(m *MockService) {
				m.On("ListByUser", mock.Anything, caller, "u-1", models.ListFilter{}).
					Return(&models.Page{Items: []*models.Subscription{}}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "someone else",
			userID: "u-2",
			setupMock: func(m *MockService) {
				m.On("ListByUser", mock.Anything, caller, "u-2", models.ListFilter{}).
					Return(nil, fmt.Errorf("op: %w", subscription.ErrForbidden)).Once()
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/subscriptions/user/"+tt.userID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.userID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithCaller(ctx, caller))

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
