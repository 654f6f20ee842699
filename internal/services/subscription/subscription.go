// Package subscription содержит бизнес-логику управления подписками:
// создание, чтение через кеш, изменение, отмену и выборки.
// Изменения, влияющие на даты продления, перезапускают workflow напоминаний.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-tracker/internal/cache"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/datetime"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
	"github.com/magabrotheeeer/subscription-tracker/internal/services/trigger"
)

var (
	// ErrForbidden подписка принадлежит другому пользователю.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput данные запроса не прошли проверку.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyCancelled подписка уже отменена.
	ErrAlreadyCancelled = errors.New("subscription already cancelled")
	// ErrTriggerFailed подписка сохранена, но workflow напоминаний не запустился.
	ErrTriggerFailed = errors.New("reminder workflow was not started")
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Repository определяет методы для работы с подписками в хранилище.
type Repository interface {
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	UpdateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) error
	DeleteSubscription(ctx context.Context, id string) error
	ListSubscriptions(ctx context.Context, f models.ListFilter) ([]*models.Subscription, int, error)
	ListUpcomingRenewals(ctx context.Context, userID string, from, to time.Time) ([]*models.Subscription, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Trigger точка входа workflow напоминаний.
type Trigger interface {
	OnSubscriptionCreatedOrUpdated(ctx context.Context, subscriptionID string) (string, error)
	OnSubscriptionCancelled(ctx context.Context, subscriptionID string) (*trigger.CancelNotice, error)
}

// Saved подписка после записи и run id запущенного workflow.
type Saved struct {
	Subscription  *models.Subscription `json:"subscription"`
	WorkflowRunID string               `json:"workflowRunId,omitempty"`
}

// Cancelled результат отмены подписки.
type Cancelled struct {
	Subscription *models.Subscription  `json:"subscription"`
	Workflow     *trigger.CancelNotice `json:"workflow,omitempty"`
}

// SubscriptionService реализует бизнес-логику работы с подписками, включая кеширование.
type SubscriptionService struct {
	repo         Repository
	cache        Cache
	trigger      Trigger
	log          *slog.Logger
	cacheTTL     time.Duration
	upcomingDays int
	now          func() time.Time
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo Repository, c Cache, t Trigger, log *slog.Logger,
	cacheTTL time.Duration, upcomingDays int) *SubscriptionService {
	return &SubscriptionService{
		repo:         repo,
		cache:        c,
		trigger:      t,
		log:          log,
		cacheTTL:     cacheTTL,
		upcomingDays: upcomingDays,
		now:          time.Now,
	}
}

// Create создает подписку для вызывающего пользователя и запускает workflow напоминаний.
// Если дата продления не указана, она вычисляется от даты начала и периода.
// Подписка с уже прошедшей датой продления сохраняется как expired.
func (s *SubscriptionService) Create(ctx context.Context, caller models.Caller, req models.DummySubscription) (*Saved, error) {
	const op = "services.subscription.Create"
	now := s.now()

	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	start, err := datetime.ParseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: start date: %w", op, ErrInvalidInput, err)
	}
	if start.After(now) {
		return nil, fmt.Errorf("%s: %w: start date must be in the past", op, ErrInvalidInput)
	}

	sub := models.Subscription{
		Name:          req.Name,
		Price:         price,
		Currency:      valueOr(req.Currency, "USD"),
		Frequency:     models.Frequency(valueOr(req.Frequency, string(models.FrequencyMonthly))),
		Category:      req.Category,
		PaymentMethod: req.PaymentMethod,
		Status:        models.Status(valueOr(req.Status, string(models.StatusActive))),
		StartDate:     start,
		UserID:        caller.UserID,
	}

	if req.RenewalDate != nil && *req.RenewalDate != "" {
		renewal, err := datetime.ParseDate(*req.RenewalDate)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: renewal date: %w", op, ErrInvalidInput, err)
		}
		sub.RenewalDate = renewal
	} else {
		sub.RenewalDate = datetime.NextRenewal(start, sub.Frequency)
	}
	if !sub.RenewalDate.After(sub.StartDate) {
		return nil, fmt.Errorf("%s: %w: renewal date must be after the start date", op, ErrInvalidInput)
	}
	if sub.RenewalDate.Before(now) {
		sub.Status = models.StatusExpired
	}

	created, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new subscription", sl.SubscriptionID(created.ID), slog.String("status", string(created.Status)))
	s.store(ctx, created)

	saved := &Saved{Subscription: created}
	runID, err := s.trigger.OnSubscriptionCreatedOrUpdated(ctx, created.ID)
	if err != nil {
		return saved, fmt.Errorf("%s: %w: %w", op, ErrTriggerFailed, err)
	}
	saved.WorkflowRunID = runID
	return saved, nil
}

// Get возвращает подписку по ID, используя кеш или репозиторий.
func (s *SubscriptionService) Get(ctx context.Context, caller models.Caller, id string) (*models.Subscription, error) {
	const op = "services.subscription.Get"
	var result *models.Subscription
	key := cache.SubscriptionKey(id)
	found, err := s.cache.Get(ctx, key, &result)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
	}
	if !found || result == nil {
		result, err = s.repo.GetSubscription(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.store(ctx, result)
	}

	if !caller.Can(result.UserID) {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	return result, nil
}

// Update применяет частичное изменение подписки. При смене даты продления,
// периода или возврате в статус active workflow напоминаний запускается заново.
func (s *SubscriptionService) Update(ctx context.Context, caller models.Caller, id string, patch models.SubscriptionPatch) (*Saved, error) {
	const op = "services.subscription.Update"
	current, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next, err := applyPatch(*current, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if next.RenewalDate.Before(s.now()) && next.Status == models.StatusActive {
		next.Status = models.StatusExpired
	}

	updated, err := s.repo.UpdateSubscription(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, id)
	s.log.Info("subscription updated", sl.SubscriptionID(id))

	saved := &Saved{Subscription: updated}
	if !needsRetrigger(*current, *updated) {
		return saved, nil
	}
	runID, err := s.trigger.OnSubscriptionCreatedOrUpdated(ctx, id)
	if err != nil {
		return saved, fmt.Errorf("%s: %w: %w", op, ErrTriggerFailed, err)
	}
	saved.WorkflowRunID = runID
	return saved, nil
}

// Delete удаляет подписку и инвалидирует кеш.
func (s *SubscriptionService) Delete(ctx context.Context, caller models.Caller, id string) error {
	const op = "services.subscription.Delete"
	if _, err := s.owned(ctx, caller, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, id)

	if _, err := s.trigger.OnSubscriptionCancelled(ctx, id); err != nil {
		s.log.Warn("failed to describe reminder workflow", sl.SubscriptionID(id), sl.Err(err))
	}
	return nil
}

// Cancel переводит подписку в статус cancelled и сообщает о текущем workflow напоминаний.
// Работающий workflow не прерывается, он завершится при следующем пробуждении.
func (s *SubscriptionService) Cancel(ctx context.Context, caller models.Caller, id string) (*Cancelled, error) {
	const op = "services.subscription.Cancel"
	sub, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sub.Status == models.StatusCancelled {
		return nil, fmt.Errorf("%s: %w", op, ErrAlreadyCancelled)
	}

	if err := s.repo.UpdateStatus(ctx, id, models.StatusCancelled); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, id)
	sub.Status = models.StatusCancelled
	sub.UpdatedAt = s.now()

	res := &Cancelled{Subscription: sub}
	notice, err := s.trigger.OnSubscriptionCancelled(ctx, id)
	if err != nil {
		s.log.Warn("failed to describe reminder workflow", sl.SubscriptionID(id), sl.Err(err))
		return res, nil
	}
	res.Workflow = notice
	return res, nil
}

// List возвращает страницу подписок. Администратор видит все подписки,
// остальные пользователи только свои.
func (s *SubscriptionService) List(ctx context.Context, caller models.Caller, f models.ListFilter) (*models.Page, error) {
	const op = "services.subscription.List"
	if !caller.IsAdmin() {
		f.UserID = caller.UserID
	}
	page, err := s.list(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return page, nil
}

// ListByUser возвращает подписки пользователя userID. Доступно только самому пользователю.
func (s *SubscriptionService) ListByUser(ctx context.Context, caller models.Caller, userID string, f models.ListFilter) (*models.Page, error) {
	const op = "services.subscription.ListByUser"
	if caller.UserID != userID {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}
	f.UserID = userID
	page, err := s.list(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return page, nil
}

// Upcoming возвращает активные подписки вызывающего, продлевающиеся в ближайшие дни,
// по возрастанию даты продления.
func (s *SubscriptionService) Upcoming(ctx context.Context, caller models.Caller) ([]*models.Subscription, error) {
	const op = "services.subscription.Upcoming"
	from := s.now()
	to := from.AddDate(0, 0, s.upcomingDays)
	subs, err := s.repo.ListUpcomingRenewals(ctx, caller.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}

func (s *SubscriptionService) list(ctx context.Context, f models.ListFilter) (*models.Page, error) {
	if f.Page < 1 {
		f.Page = defaultPage
	}
	switch {
	case f.Limit < 1:
		f.Limit = defaultLimit
	case f.Limit > maxLimit:
		f.Limit = maxLimit
	}

	items, total, err := s.repo.ListSubscriptions(ctx, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.Subscription{}
	}
	return &models.Page{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: (total + f.Limit - 1) / f.Limit,
	}, nil
}

// owned читает подписку мимо кеша и проверяет права вызывающего.
func (s *SubscriptionService) owned(ctx context.Context, caller models.Caller, id string) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.Can(sub.UserID) {
		return nil, ErrForbidden
	}
	return sub, nil
}

func (s *SubscriptionService) store(ctx context.Context, sub *models.Subscription) {
	key := cache.SubscriptionKey(sub.ID)
	if err := s.cache.Set(ctx, key, sub, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", key), sl.Err(err))
	}
}

func (s *SubscriptionService) invalidate(ctx context.Context, id string) {
	key := cache.SubscriptionKey(id)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
	}
}

func applyPatch(sub models.Subscription, p models.SubscriptionPatch) (models.Subscription, error) {
	if p.Name != nil {
		sub.Name = *p.Name
	}
	if p.Price != nil {
		price, err := parsePrice(*p.Price)
		if err != nil {
			return sub, err
		}
		sub.Price = price
	}
	if p.Currency != nil {
		sub.Currency = *p.Currency
	}
	if p.Category != nil {
		sub.Category = *p.Category
	}
	if p.PaymentMethod != nil {
		sub.PaymentMethod = *p.PaymentMethod
	}
	if p.Status != nil {
		sub.Status = models.Status(*p.Status)
	}

	recompute := false
	if p.Frequency != nil && models.Frequency(*p.Frequency) != sub.Frequency {
		sub.Frequency = models.Frequency(*p.Frequency)
		recompute = true
	}
	if p.StartDate != nil {
		start, err := datetime.ParseDate(*p.StartDate)
		if err != nil {
			return sub, fmt.Errorf("%w: start date: %w", ErrInvalidInput, err)
		}
		recompute = recompute || !start.Equal(sub.StartDate)
		sub.StartDate = start
	}
	switch {
	case p.RenewalDate != nil:
		renewal, err := datetime.ParseDate(*p.RenewalDate)
		if err != nil {
			return sub, fmt.Errorf("%w: renewal date: %w", ErrInvalidInput, err)
		}
		sub.RenewalDate = renewal
	case recompute:
		sub.RenewalDate = datetime.NextRenewal(sub.StartDate, sub.Frequency)
	}

	if !sub.RenewalDate.After(sub.StartDate) {
		return sub, fmt.Errorf("%w: renewal date must be after the start date", ErrInvalidInput)
	}
	return sub, nil
}

// needsRetrigger сообщает, нужен ли новый запуск workflow после изменения.
func needsRetrigger(before, after models.Subscription) bool {
	if !after.IsActive() {
		return false
	}
	return !before.RenewalDate.Equal(after.RenewalDate) ||
		before.Frequency != after.Frequency ||
		!before.IsActive()
}

func parsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price: %w", ErrInvalidInput, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	return price, nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
