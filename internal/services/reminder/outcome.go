package reminder

import "github.com/magabrotheeeer/subscription-tracker/internal/models"

// Outcome итог выполнения workflow.
type Outcome string

const (
	OutcomeCompleted Outcome = "COMPLETED"
	OutcomeExpired   Outcome = "EXPIRED"
	OutcomeInactive  Outcome = "INACTIVE"
	OutcomeNotFound  Outcome = "NOT_FOUND"
)

// Input вход workflow.
type Input struct {
	SubscriptionID string `json:"subscriptionId"`
}

// Result итог workflow со счётчиками напоминаний.
// Status заполняется для INACTIVE и EXPIRED.
type Result struct {
	Outcome Outcome       `json:"outcome"`
	Status  models.Status `json:"status,omitempty"`
	Sent    int           `json:"sent"`
	Failed  int           `json:"failed"`
	Skipped int           `json:"skipped"`
}

// LoadResult результат активности LoadSubscription.
type LoadResult struct {
	Found    bool                         `json:"found"`
	Snapshot *models.SubscriptionSnapshot `json:"snapshot,omitempty"`
}

// SendInput вход активности SendReminder.
type SendInput struct {
	LeadDays int                         `json:"leadDays"`
	Snapshot models.SubscriptionSnapshot `json:"snapshot"`
}
