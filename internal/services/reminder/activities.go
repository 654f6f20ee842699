package reminder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/magabrotheeeer/subscription-tracker/internal/cache"
	"github.com/magabrotheeeer/subscription-tracker/internal/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/storage/repository"
)

// Store хранилище подписок, из которого читает процесс напоминаний.
type Store interface {
	FindSnapshot(ctx context.Context, id string) (*models.SubscriptionSnapshot, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) error
}

// Notifier отправитель уведомлений о продлении.
type Notifier interface {
	Send(ctx context.Context, msg models.ReminderMessage) error
}

// CacheInvalidator сбрасывает закешированную подписку после записи в хранилище.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, key string) error
}

// Activities активности workflow напоминаний.
type Activities struct {
	store    Store
	notifier Notifier
	cache    CacheInvalidator
	metrics  metrics.ReminderMetrics
}

// NewActivities создаёт набор активностей. cache может быть nil.
func NewActivities(store Store, notifier Notifier, cache CacheInvalidator, m metrics.ReminderMetrics) *Activities {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Activities{store: store, notifier: notifier, cache: cache, metrics: m}
}

// LoadSubscription читает подписку вместе с владельцем.
// Отсутствие подписки не ошибка: возвращается Found=false.
// Id, который не является UUID, в хранилище не ищется.
func (a *Activities) LoadSubscription(ctx context.Context, id string) (*LoadResult, error) {
	const op = "reminder.LoadSubscription"
	if uuid.Validate(id) != nil {
		return &LoadResult{Found: false}, nil
	}
	snap, err := a.store.FindSnapshot(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return &LoadResult{Found: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &LoadResult{Found: true, Snapshot: snap}, nil
}

// MarkExpired переводит подписку в статус expired.
func (a *Activities) MarkExpired(ctx context.Context, id string) error {
	const op = "reminder.MarkExpired"
	if err := a.store.UpdateStatus(ctx, id, models.StatusExpired); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	a.metrics.IncSubscriptionExpired()
	if a.cache != nil {
		if err := a.cache.Invalidate(ctx, cache.SubscriptionKey(id)); err != nil {
			activity.GetLogger(ctx).Warn("failed to invalidate cache", "subscription_id", id, "error", err)
		}
	}
	return nil
}

// SendReminder формирует сообщение и передаёт его отправителю уведомлений.
func (a *Activities) SendReminder(ctx context.Context, in SendInput) error {
	const op = "reminder.SendReminder"
	msg := NewMessage(in.LeadDays, &in.Snapshot)
	if err := a.notifier.Send(ctx, msg); err != nil {
		a.metrics.IncReminderFailed(in.LeadDays)
		return fmt.Errorf("%s: %w", op, err)
	}
	a.metrics.IncReminderSent(in.LeadDays)
	activity.GetLogger(ctx).Info("reminder sent",
		"subscription_id", in.Snapshot.ID, "lead_days", in.LeadDays, "message_id", msg.MessageID)
	return nil
}

// NewMessage собирает сообщение о продлении из снимка подписки.
func NewMessage(leadDays int, snap *models.SubscriptionSnapshot) models.ReminderMessage {
	return models.ReminderMessage{
		MessageID:      uuid.NewString(),
		Kind:           Label(leadDays),
		LeadDays:       leadDays,
		SubscriptionID: snap.ID,
		Name:           snap.Name,
		Price:          snap.Price,
		Currency:       snap.Currency,
		Frequency:      snap.Frequency,
		PaymentMethod:  snap.PaymentMethod,
		RenewalDate:    snap.RenewalDate,
		UserName:       snap.Owner.Name,
		UserEmail:      snap.Owner.Email,
	}
}
