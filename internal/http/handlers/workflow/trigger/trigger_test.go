package trigger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type DispatcherMock struct {
	mock.Mock
}

func (m *DispatcherMock) OnSubscriptionCreatedOrUpdated(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func TestTriggerHandler(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		setupMock func(m *DispatcherMock)
		status    int
		expected  string
	}{
		{
			name: "started",
			body: `{"subscriptionId":"7f8e2a4c-1d3b-4e5f-9a6b-0c1d2e3f4a5b"}`,
			setupMock: func(m *DispatcherMock) {
				m.On("OnSubscriptionCreatedOrUpdated", mock.Anything, "7f8e2a4c-1d3b-4e5f-9a6b-0c1d2e3f4a5b").Return("run-9", nil).Once()
			},
			status:   http.StatusAccepted,
			expected: `"runId":"run-9"`,
		},
		{
			name:      "missing id",
			body:      `{}`,
			setupMock: func(_ *DispatcherMock) {},
			status:    http.StatusUnprocessableEntity,
			expected:  "field SubscriptionID is a required field",
		},
		{
			name:      "malformed id",
			body:      `{"subscriptionId":"not-a-uuid"}`,
			setupMock: func(_ *DispatcherMock) {},
			status:    http.StatusUnprocessableEntity,
			expected:  "field SubscriptionID can contain only uuid",
		},
		{
			name: "engine unavailable",
			body: `{"subscriptionId":"7f8e2a4c-1d3b-4e5f-9a6b-0c1d2e3f4a5b"}`,
			setupMock: func(m *DispatcherMock) {
				m.On("OnSubscriptionCreatedOrUpdated", mock.Anything, "7f8e2a4c-1d3b-4e5f-9a6b-0c1d2e3f4a5b").Return("", errors.New("dial")).Once()
			},
			status:   http.StatusBadGateway,
			expected: "reminder workflow was not started",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := new(DispatcherMock)
			tt.setupMock(d)

			req := httptest.NewRequest(http.MethodPost, "/workflows/subscriptions/reminder", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), d).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.expected)
			d.AssertExpectations(t)
		})
	}
}
