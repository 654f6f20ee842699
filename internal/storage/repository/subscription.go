package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const subscriptionColumns = `id, name, price, currency, frequency, category, payment_method, status,
	start_date, renewal_date, user_id, created_at, updated_at`

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Price, &sub.Currency, &sub.Frequency, &sub.Category,
		&sub.PaymentMethod, &sub.Status, &sub.StartDate, &sub.RenewalDate, &sub.UserID,
		&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription сохраняет подписку и возвращает её с id и датами создания.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (name, price, currency, frequency, category, payment_method,
			      status, start_date, renewal_date, user_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id, created_at, updated_at`
	if err := s.DB.QueryRowContext(ctx, query,
		sub.Name, sub.Price, sub.Currency, sub.Frequency, sub.Category, sub.PaymentMethod,
		sub.Status, sub.StartDate, sub.RenewalDate, sub.UserID,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &sub, nil
}

// GetSubscription возвращает подписку по id.
func (s *Storage) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	sub, err := scanSubscription(s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return sub, nil
}

// UpdateSubscription перезаписывает изменяемые поля подписки.
func (s *Storage) UpdateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET name = $1, price = $2, currency = $3, frequency = $4, category = $5,
			      payment_method = $6, status = $7, start_date = $8, renewal_date = $9, updated_at = NOW()
			  WHERE id = $10
			  RETURNING updated_at`
	if err := s.DB.QueryRowContext(ctx, query,
		sub.Name, sub.Price, sub.Currency, sub.Frequency, sub.Category,
		sub.PaymentMethod, sub.Status, sub.StartDate, sub.RenewalDate, sub.ID,
	).Scan(&sub.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &sub, nil
}

// UpdateStatus меняет только статус подписки.
func (s *Storage) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	const op = "storage.UpdateStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// DeleteSubscription удаляет подписку.
func (s *Storage) DeleteSubscription(ctx context.Context, id string) error {
	const op = "storage.DeleteSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// ListSubscriptions возвращает страницу подписок по фильтру и общее количество.
// Пустые поля фильтра не ограничивают выборку.
func (s *Storage) ListSubscriptions(ctx context.Context, f models.ListFilter) ([]*models.Subscription, int, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	where := `WHERE ($1::text = '' OR user_id::text = $1)
			    AND ($2::text = '' OR status = $2)
			    AND ($3::text = '' OR category = $3)`

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscriptions `+where,
		f.UserID, f.Status, f.Category).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions `+where+`
		 ORDER BY created_at DESC, id
		 LIMIT $4 OFFSET $5`,
		f.UserID, f.Status, f.Category, f.Limit, f.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Subscription, 0, f.Limit)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// ListUpcomingRenewals активные подписки пользователя с продлением в [from, to], по возрастанию даты.
func (s *Storage) ListUpcomingRenewals(ctx context.Context, userID string, from, to time.Time) ([]*models.Subscription, error) {
	const op = "storage.ListUpcomingRenewals"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE user_id = $1 AND status = $2 AND renewal_date BETWEEN $3 AND $4
		 ORDER BY renewal_date ASC`,
		userID, models.StatusActive, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindSnapshot возвращает подписку вместе с именем и email владельца.
func (s *Storage) FindSnapshot(ctx context.Context, id string) (*models.SubscriptionSnapshot, error) {
	const op = "storage.FindSnapshot"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.name, s.price, s.currency, s.frequency, s.category, s.payment_method, s.status,
			      s.start_date, s.renewal_date, s.user_id, s.created_at, s.updated_at,
			      u.name, u.email
			  FROM subscriptions s
			  JOIN users u ON u.id = s.user_id
			  WHERE s.id = $1`
	var snap models.SubscriptionSnapshot
	sub := &snap.Subscription
	if err := s.DB.QueryRowContext(ctx, query, id).Scan(
		&sub.ID, &sub.Name, &sub.Price, &sub.Currency, &sub.Frequency, &sub.Category,
		&sub.PaymentMethod, &sub.Status, &sub.StartDate, &sub.RenewalDate, &sub.UserID,
		&sub.CreatedAt, &sub.UpdatedAt, &snap.Owner.Name, &snap.Owner.Email,
	); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &snap, nil
}
