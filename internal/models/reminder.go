package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReminderMessage сообщение о предстоящем продлении, которое уходит в очередь уведомлений.
type ReminderMessage struct {
	MessageID      string          `json:"messageId"`
	Kind           string          `json:"kind"`
	LeadDays       int             `json:"leadDays"`
	SubscriptionID string          `json:"subscriptionId"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	Frequency      Frequency       `json:"frequency"`
	PaymentMethod  string          `json:"paymentMethod"`
	RenewalDate    time.Time       `json:"renewalDate"`
	UserName       string          `json:"userName"`
	UserEmail      string          `json:"userEmail"`
}
