package dividends

import (
	"github.com/shopspring/decimal"
)

// MonthBucket groups the entries paid out in one calendar month.
type MonthBucket struct {
	Month   int             `json:"month"`
	Total   decimal.Decimal `json:"total"`
	Entries []Entry         `json:"entries"`
}

// Calendar is a year of projected income bucketed by month and quarter.
type Calendar struct {
	Year     int                `json:"year"`
	Total    decimal.Decimal    `json:"total"`
	Quarters [4]decimal.Decimal `json:"quarters"`
	Months   []MonthBucket      `json:"months"`
}

// BuildCalendar buckets entries of year by their ex-dividend month.
// Entries from other years are ignored. All twelve months are present, empty or not.
func BuildCalendar(entries []Entry, year int) Calendar {
	cal := Calendar{Year: year, Months: make([]MonthBucket, 12)}
	for i := range cal.Months {
		cal.Months[i] = MonthBucket{Month: i + 1, Entries: []Entry{}}
	}

	for _, e := range entries {
		if e.Year != year || e.Month < 1 || e.Month > 12 {
			continue
		}
		b := &cal.Months[e.Month-1]
		b.Entries = append(b.Entries, e)
		b.Total = b.Total.Add(e.TotalAmount)
		cal.Quarters[QuarterOf(e.Month)-1] = cal.Quarters[QuarterOf(e.Month)-1].Add(e.TotalAmount)
		cal.Total = cal.Total.Add(e.TotalAmount)
	}

	return cal
}
