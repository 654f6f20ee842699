// Package reminder содержит процесс напоминаний о продлении подписки:
// расчёт расписания, temporal-workflow и его активности.
package reminder

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidLeadTimes некорректный список сроков напоминаний.
var ErrInvalidLeadTimes = errors.New("lead times must be a non-empty list of positive day counts")

// Reminder момент отправки одного напоминания.
type Reminder struct {
	LeadDays int
	At       time.Time
}

// Calculator считает расписание напоминаний по фиксированному списку сроков.
type Calculator struct {
	leadTimes []int
}

// NewCalculator создаёт калькулятор. Список копируется и дальше не меняется.
func NewCalculator(leadTimes []int) (*Calculator, error) {
	const op = "reminder.NewCalculator"
	if len(leadTimes) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidLeadTimes)
	}
	for _, d := range leadTimes {
		if d <= 0 {
			return nil, fmt.Errorf("%s: %w: got %d", op, ErrInvalidLeadTimes, d)
		}
	}
	cp := make([]int, len(leadTimes))
	copy(cp, leadTimes)
	return &Calculator{leadTimes: cp}, nil
}

// LeadTimes возвращает копию списка сроков.
func (c *Calculator) LeadTimes() []int {
	cp := make([]int, len(c.leadTimes))
	copy(cp, c.leadTimes)
	return cp
}

// Schedule возвращает по одному напоминанию на каждый срок, в порядке списка.
func (c *Calculator) Schedule(renewal time.Time) []Reminder {
	out := make([]Reminder, 0, len(c.leadTimes))
	for _, d := range c.leadTimes {
		out = append(out, Reminder{LeadDays: d, At: renewal.AddDate(0, 0, -d)})
	}
	return out
}

// Label тип уведомления для срока, например "7 days before reminder".
func Label(leadDays int) string {
	return fmt.Sprintf("%d days before reminder", leadDays)
}
