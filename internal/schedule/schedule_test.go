package schedule_test

import (
	"testing"
	"time"

	"github.com/dvloznov/ledgerboard/internal/domain"
	"github.com/dvloznov/ledgerboard/internal/schedule"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		freq domain.Frequency
		want time.Time
	}{
		{"WeeklyAddsSevenDays", date(2025, time.March, 10), domain.FrequencyWeekly, date(2025, time.March, 17)},
		{"WeeklyAcrossMonthEnd", date(2025, time.January, 28), domain.FrequencyWeekly, date(2025, time.February, 4)},
		{"MonthlyPlain", date(2025, time.March, 15), domain.FrequencyMonthly, date(2025, time.April, 15)},
		{"MonthlyClampsToFebruary", date(2025, time.January, 31), domain.FrequencyMonthly, date(2025, time.February, 28)},
		{"MonthlyClampsToLeapFebruary", date(2024, time.January, 31), domain.FrequencyMonthly, date(2024, time.February, 29)},
		{"MonthlyThirtiethToFebruary", date(2025, time.January, 30), domain.FrequencyMonthly, date(2025, time.February, 28)},
		{"MonthlyAcrossYearEnd", date(2025, time.December, 31), domain.FrequencyMonthly, date(2026, time.January, 31)},
		{"QuarterlyPlain", date(2025, time.February, 10), domain.FrequencyQuarterly, date(2025, time.May, 10)},
		{"QuarterlyClamps", date(2025, time.November, 30), domain.FrequencyQuarterly, date(2026, time.February, 28)},
		{"YearlyPlain", date(2025, time.June, 1), domain.FrequencyYearly, date(2026, time.June, 1)},
		{"YearlyLeapDayClamps", date(2024, time.February, 29), domain.FrequencyYearly, date(2025, time.February, 28)},
		{"UnknownFrequencyUnchanged", date(2025, time.June, 1), "daily", date(2025, time.June, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schedule.NextOccurrence(tt.from, tt.freq)
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence(%s, %s) = %s, want %s",
					tt.from.Format("2006-01-02"), tt.freq,
					got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
			}
		})
	}
}
