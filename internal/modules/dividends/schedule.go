package dividends

import (
	"sort"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
)

const (
	// ExDividendDay is the day of month every projected ex-dividend date falls on.
	ExDividendDay = 15
	// PaymentLagDays separates a projected ex-dividend date from its payment date.
	PaymentLagDays = 21
)

// DividendDates returns the projected ex-dividend dates for freq across years.
// A date is kept only if it is strictly after both purchaseDate and now.
// The result is ascending and free of duplicates.
func DividendDates(freq domain.PayoutFrequency, years []int, purchaseDate, now time.Time) []time.Time {
	months := freq.Months()
	seen := make(map[time.Time]bool, len(years)*len(months))
	dates := make([]time.Time, 0, len(years)*len(months))

	for _, year := range years {
		for _, month := range months {
			d := time.Date(year, time.Month(month), ExDividendDay, 0, 0, 0, 0, time.UTC)
			if !d.After(purchaseDate) || !d.After(now) || seen[d] {
				continue
			}
			seen[d] = true
			dates = append(dates, d)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// PaymentDate returns the projected payment date for an ex-dividend date.
func PaymentDate(exDate time.Time) time.Time {
	return exDate.AddDate(0, 0, PaymentLagDays)
}

// ProjectionYears is the default projection horizon: the current and the next calendar year.
func ProjectionYears(now time.Time) []int {
	y := now.UTC().Year()
	return []int{y, y + 1}
}

// QuarterOf maps a calendar month (1-12) to its quarter (1-4).
func QuarterOf(month int) int {
	return (month + 2) / 3
}
