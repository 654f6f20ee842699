package reminder

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) FindSnapshot(ctx context.Context, id string) (*models.SubscriptionSnapshot, error) {
	args := m.Called(ctx, id)
	var snap *models.SubscriptionSnapshot
	if v := args.Get(0); v != nil {
		snap = v.(*models.SubscriptionSnapshot)
	}
	return snap, args.Error(1)
}

func (m *StoreMock) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Send(ctx context.Context, msg models.ReminderMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func leadDays(n int) interface{} {
	return mock.MatchedBy(func(msg models.ReminderMessage) bool {
		return msg.LeadDays == n
	})
}
