package marketdata

import (
	"strings"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
)

// DefaultTimeframe is used for unrecognized timeframe names.
const DefaultTimeframe = "1m"

type timeframePolicy struct {
	days        int
	years       int
	granularity domain.Granularity
}

var timeframes = map[string]timeframePolicy{
	"7d":  {days: 7, granularity: domain.GranularityDay},
	"1m":  {days: 30, granularity: domain.GranularityDay},
	"3m":  {days: 90, granularity: domain.GranularityDay},
	"6m":  {days: 180, granularity: domain.GranularityDay},
	"1y":  {days: 365, granularity: domain.GranularityDay},
	"5y":  {years: 5, granularity: domain.GranularityWeek},
	"all": {granularity: domain.GranularityMonth},
}

// ResolveTimeframe maps a timeframe name to its window ending at now.
// It returns the name actually applied.
func ResolveTimeframe(name string, now time.Time) (string, domain.PriceWindow) {
	key := strings.ToLower(strings.TrimSpace(name))
	policy, ok := timeframes[key]
	if !ok {
		key = DefaultTimeframe
		policy = timeframes[key]
	}

	window := domain.PriceWindow{To: now, Granularity: policy.granularity}
	switch {
	case policy.years > 0:
		window.From = now.AddDate(-policy.years, 0, 0)
	case policy.days > 0:
		window.From = now.AddDate(0, 0, -policy.days)
	}
	return key, window
}
