// Package models содержит доменные структуры, описывающие подписку и её владельца,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status состояние жизненного цикла подписки.
type Status string

// Допустимые статусы подписки.
const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
	StatusTrial     Status = "trial"
	StatusPastDue   Status = "pastDue"
)

// Frequency период продления подписки.
type Frequency string

// Допустимые периоды продления.
const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Subscription представляет собой основную модель подписки,
// используемую в бизнес-логике и хранилище.
type Subscription struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	Frequency     Frequency       `json:"frequency"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        Status          `json:"status"`
	StartDate     time.Time       `json:"startDate"`
	RenewalDate   time.Time       `json:"renewalDate"`
	UserID        string          `json:"userId"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// IsActive сообщает, находится ли подписка в статусе active.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// Owner данные владельца, нужные для уведомления.
type Owner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubscriptionSnapshot подписка вместе с владельцем на момент чтения из хранилища.
// Используется процессом напоминаний.
type SubscriptionSnapshot struct {
	Subscription
	Owner Owner `json:"owner"`
}

// DummySubscription используется для приёма данных из JSON-запроса
// до их валидации и преобразования в Subscription.
// Даты приходят строками в формате RFC3339 или 2006-01-02.
type DummySubscription struct {
	Name          string  `json:"name" validate:"required,min=2,max=100"`
	Price         string  `json:"price" validate:"required"`
	Currency      string  `json:"currency" validate:"omitempty,oneof=USD EUR GBP"`
	Frequency     string  `json:"frequency" validate:"omitempty,oneof=daily weekly monthly yearly"`
	Category      string  `json:"category" validate:"required,oneof=sports news entertainment lifestyle technology finance politics other"`
	PaymentMethod string  `json:"paymentMethod" validate:"required"`
	Status        string  `json:"status" validate:"omitempty,oneof=active cancelled expired trial pastDue"`
	StartDate     string  `json:"startDate" validate:"required"`
	RenewalDate   *string `json:"renewalDate,omitempty"`
}

// SubscriptionPatch частичное обновление подписки, nil-поля не меняются.
type SubscriptionPatch struct {
	Name          *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Price         *string `json:"price,omitempty"`
	Currency      *string `json:"currency,omitempty" validate:"omitempty,oneof=USD EUR GBP"`
	Frequency     *string `json:"frequency,omitempty" validate:"omitempty,oneof=daily weekly monthly yearly"`
	Category      *string `json:"category,omitempty" validate:"omitempty,oneof=sports news entertainment lifestyle technology finance politics other"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=active cancelled expired trial pastDue"`
	StartDate     *string `json:"startDate,omitempty"`
	RenewalDate   *string `json:"renewalDate,omitempty"`
}

// ListFilter параметры выборки списка подписок.
type ListFilter struct {
	UserID   string // пусто — все пользователи
	Status   string
	Category string
	Page     int
	Limit    int
}

// Offset смещение для текущей страницы.
func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Page страница результата с метаданными пагинации.
type Page struct {
	Items      []*Subscription `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}
