package marketdata

import (
	"math"

	"github.com/aristath/yieldfolio/internal/domain"
)

// DividendProfile is the inferred cadence and yield of a dividend payer.
// Frequency is nil when the yield is not positive.
type DividendProfile struct {
	Frequency        *domain.PayoutFrequency
	DividendPerShare float64
	AnnualDividend   float64
	DividendYield    float64
}

// ClassifyFrequency infers the payout cadence from the gap between the two
// most recent payments. history must be ordered most recent first.
func ClassifyFrequency(history []domain.DividendPayment) domain.PayoutFrequency {
	if len(history) < 2 {
		return domain.FrequencyQuarterly
	}

	days := math.Abs(history[0].Date.Sub(history[1].Date).Hours() / 24)
	switch {
	case days <= 35:
		return domain.FrequencyMonthly
	case days <= 95:
		return domain.FrequencyQuarterly
	case days <= 185:
		return domain.FrequencySemiAnnual
	default:
		return domain.FrequencyAnnual
	}
}

// InferDividendProfile annualizes the latest payment and derives the yield
// against price. reportedDPS is used only when history is empty.
func InferDividendProfile(history []domain.DividendPayment, reportedDPS, price float64) DividendProfile {
	latest := reportedDPS
	if len(history) > 0 {
		latest = history[0].Amount
	}

	freq := ClassifyFrequency(history)
	annual := latest * freq.Multiplier()

	var yield float64
	if price > 0 {
		yield = annual / price * 100
	}

	if yield <= 0 {
		return DividendProfile{}
	}
	return DividendProfile{
		Frequency:        freq.Ptr(),
		DividendPerShare: latest,
		AnnualDividend:   annual,
		DividendYield:    yield,
	}
}

func (p DividendProfile) applyToOverview(o *domain.CompanyOverview) {
	o.DividendYield = p.DividendYield
	o.DividendPerShare = p.DividendPerShare
	o.PayoutFrequency = p.Frequency
}

func (p DividendProfile) applyToSearchResult(r *domain.SearchResult) {
	r.DividendYield = p.DividendYield
	r.DividendPerShare = p.DividendPerShare
	r.PayoutFrequency = p.Frequency
}
