package domain

import "strings"

// PayoutFrequency is the cadence of dividend payments.
type PayoutFrequency string

const (
	FrequencyMonthly    PayoutFrequency = "monthly"
	FrequencyQuarterly  PayoutFrequency = "quarterly"
	FrequencySemiAnnual PayoutFrequency = "semi-annual"
	FrequencyAnnual     PayoutFrequency = "annual"
)

// ParseFrequency maps free-form input to a PayoutFrequency.
// Unrecognized values fall back to quarterly.
func ParseFrequency(s string) PayoutFrequency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly":
		return FrequencyMonthly
	case "semi-annual", "semiannual", "semi_annual", "semi-annually":
		return FrequencySemiAnnual
	case "annual", "annually", "yearly":
		return FrequencyAnnual
	default:
		return FrequencyQuarterly
	}
}

// Multiplier is the number of payments per year.
func (f PayoutFrequency) Multiplier() float64 {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencySemiAnnual:
		return 2
	case FrequencyAnnual:
		return 1
	default:
		return 4
	}
}

// Months returns the calendar months a payout lands in.
func (f PayoutFrequency) Months() []int {
	switch f {
	case FrequencyMonthly:
		return []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	case FrequencySemiAnnual:
		return []int{6, 12}
	case FrequencyAnnual:
		return []int{12}
	default:
		return []int{3, 6, 9, 12}
	}
}

// Ptr returns a pointer to a copy of f.
func (f PayoutFrequency) Ptr() *PayoutFrequency {
	return &f
}
