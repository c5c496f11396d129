// Package charts turns price history into chart series and indicator overlays.
package charts

import (
	"fmt"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/markcheno/go-talib"
)

// ChartDataPoint represents a single point on a chart
type ChartDataPoint struct {
	Time  string  `json:"time"`  // YYYY-MM-DD format
	Value float64 `json:"value"` // Close price or indicator value
}

// MinPeriod is the smallest moving-average period accepted.
const MinPeriod = 2

// ClosingSeries maps bars to their closing prices. Bars must be in ascending date order.
func ClosingSeries(points []domain.PricePoint) []ChartDataPoint {
	out := make([]ChartDataPoint, len(points))
	for i, p := range points {
		out[i] = ChartDataPoint{Time: p.Date.Format("2006-01-02"), Value: p.Close}
	}
	return out
}

// MovingAverages computes a simple moving average of closing prices for each period.
// Keys are "sma<period>". Leading bars without a full window are omitted, so a
// period longer than the series yields an empty overlay. Periods below MinPeriod are skipped.
func MovingAverages(points []domain.PricePoint, periods []int) map[string][]ChartDataPoint {
	overlays := make(map[string][]ChartDataPoint, len(periods))
	if len(periods) == 0 {
		return overlays
	}

	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}

	for _, period := range periods {
		if period < MinPeriod {
			continue
		}
		key := fmt.Sprintf("sma%d", period)
		if len(closes) < period {
			overlays[key] = []ChartDataPoint{}
			continue
		}

		sma := talib.Sma(closes, period)
		series := make([]ChartDataPoint, 0, len(closes)-period+1)
		for i := period - 1; i < len(sma); i++ {
			series = append(series, ChartDataPoint{Time: points[i].Date.Format("2006-01-02"), Value: sma[i]})
		}
		overlays[key] = series
	}

	return overlays
}
