// Package schedule computes next-occurrence dates for periodic obligations
// and converts due obligations into ledger transactions.
package schedule

import (
	"time"

	"github.com/dvloznov/ledgerboard/internal/domain"
)

// NextOccurrence returns the occurrence date one interval after d. Monthly,
// quarterly and yearly intervals use calendar arithmetic with month-end
// clamping: 2025-01-31 plus one month is 2025-02-28, not a fixed day count.
// Unknown frequencies return d unchanged.
func NextOccurrence(d time.Time, f domain.Frequency) time.Time {
	switch f {
	case domain.FrequencyWeekly:
		return d.AddDate(0, 0, 7)
	case domain.FrequencyMonthly:
		return addMonths(d, 1)
	case domain.FrequencyQuarterly:
		return addMonths(d, 3)
	case domain.FrequencyYearly:
		return addMonths(d, 12)
	}
	return d
}

// addMonths adds n calendar months to t, clamping the day to the target
// month's length. time.AddDate normalizes overflow (Jan 31 + 1 month = Mar 3),
// which is wrong for payment schedules.
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month()); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
