// Package datetime содержит арифметику дат для подписок:
// вычисление следующего продления, остатка дней и форматирование для писем.
package datetime

import (
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

const day = 24 * time.Hour

// HumanLayout формат даты в уведомлениях.
const HumanLayout = "Jan 2, 2006"

// NextRenewal возвращает дату следующего продления после start.
// Месяц и год прибавляются по календарю с прижатием к последнему дню целевого месяца:
// 31 января + 1 месяц = 28 (29) февраля. Неизвестный период считается месячным.
func NextRenewal(start time.Time, f models.Frequency) time.Time {
	switch f {
	case models.FrequencyDaily:
		return start.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return start.AddDate(0, 0, 7)
	case models.FrequencyYearly:
		return addMonthsClamped(start, 12)
	default:
		return addMonthsClamped(start, 1)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

// DaysRemaining количество полных дней от now до target.
// Если now не раньше target, возвращает 0.
func DaysRemaining(target, now time.Time) int {
	if !now.Before(target) {
		return 0
	}
	return int(target.Sub(now) / day)
}

// SameDay сравнивает календарные дни в UTC.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// InRange проверяет, что t лежит в [start, end] включительно.
func InRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// FormatHuman форматирует дату для писем, например "Mar 5, 2025".
func FormatHuman(t time.Time) string {
	return t.Format(HumanLayout)
}

// ParseDate принимает RFC3339 или 2006-01-02.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
