package dividends

import (
	"testing"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDividendDates_QuarterlyFullYear(t *testing.T) {
	dates := DividendDates(domain.FrequencyQuarterly, []int{2025}, day(2024, 1, 1), day(2024, 12, 31))

	assert.Equal(t, []time.Time{
		day(2025, 3, 15),
		day(2025, 6, 15),
		day(2025, 9, 15),
		day(2025, 12, 15),
	}, dates)
}

func TestDividendDates_MonthlyStartsAfterPurchase(t *testing.T) {
	purchase := day(2025, 6, 20)
	dates := DividendDates(domain.FrequencyMonthly, []int{2025}, purchase, purchase)

	require.Len(t, dates, 6)
	assert.Equal(t, day(2025, 7, 15), dates[0])
	assert.Equal(t, day(2025, 12, 15), dates[5])
}

func TestDividendDates_Filters(t *testing.T) {
	tests := []struct {
		name     string
		freq     domain.PayoutFrequency
		years    []int
		purchase time.Time
		now      time.Time
		want     []time.Time
	}{
		{
			name:     "purchase on ex-date excludes that month",
			freq:     domain.FrequencyQuarterly,
			years:    []int{2025},
			purchase: day(2025, 3, 15),
			now:      day(2025, 1, 1),
			want:     []time.Time{day(2025, 6, 15), day(2025, 9, 15), day(2025, 12, 15)},
		},
		{
			name:     "dates before now are dropped",
			freq:     domain.FrequencyQuarterly,
			years:    []int{2025},
			purchase: day(2020, 1, 1),
			now:      day(2025, 7, 1),
			want:     []time.Time{day(2025, 9, 15), day(2025, 12, 15)},
		},
		{
			name:     "semi-annual across two years",
			freq:     domain.FrequencySemiAnnual,
			years:    []int{2026, 2025},
			purchase: day(2025, 1, 1),
			now:      day(2025, 1, 1),
			want:     []time.Time{day(2025, 6, 15), day(2025, 12, 15), day(2026, 6, 15), day(2026, 12, 15)},
		},
		{
			name:     "annual pays in december",
			freq:     domain.FrequencyAnnual,
			years:    []int{2025},
			purchase: day(2025, 1, 1),
			now:      day(2025, 1, 1),
			want:     []time.Time{day(2025, 12, 15)},
		},
		{
			name:     "unknown frequency behaves as quarterly",
			freq:     domain.ParseFrequency("sometimes"),
			years:    []int{2025},
			purchase: day(2025, 1, 1),
			now:      day(2025, 1, 1),
			want:     []time.Time{day(2025, 3, 15), day(2025, 6, 15), day(2025, 9, 15), day(2025, 12, 15)},
		},
		{
			name:     "duplicate years collapse",
			freq:     domain.FrequencyAnnual,
			years:    []int{2025, 2025},
			purchase: day(2025, 1, 1),
			now:      day(2025, 1, 1),
			want:     []time.Time{day(2025, 12, 15)},
		},
		{
			name:     "everything in the past",
			freq:     domain.FrequencyMonthly,
			years:    []int{2024},
			purchase: day(2020, 1, 1),
			now:      day(2025, 1, 1),
			want:     []time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DividendDates(tt.freq, tt.years, tt.purchase, tt.now))
		})
	}
}

func TestPaymentDate(t *testing.T) {
	assert.Equal(t, day(2025, 4, 5), PaymentDate(day(2025, 3, 15)))
	assert.Equal(t, day(2026, 1, 5), PaymentDate(day(2025, 12, 15)))
}

func TestProjectionYears(t *testing.T) {
	assert.Equal(t, []int{2025, 2026}, ProjectionYears(day(2025, 8, 1)))
}

func TestQuarterOf(t *testing.T) {
	want := map[int]int{1: 1, 2: 1, 3: 1, 4: 2, 6: 2, 7: 3, 9: 3, 10: 4, 12: 4}
	for month, q := range want {
		assert.Equal(t, q, QuarterOf(month), "month %d", month)
	}
}
