package dividends

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCalendar(t *testing.T) {
	entries := []Entry{
		*newEntry("a", "u1", "O", 2025, 1),
		*newEntry("b", "u1", "O", 2025, 2),
		*newEntry("c", "u1", "KO", 2025, 2),
		*newEntry("d", "u1", "KO", 2025, 12),
		*newEntry("e", "u1", "KO", 2026, 1),
	}

	cal := BuildCalendar(entries, 2025)

	assert.Equal(t, 2025, cal.Year)
	require.Len(t, cal.Months, 12)
	assert.Len(t, cal.Months[1].Entries, 2)
	assert.True(t, decimal.NewFromInt(5).Equal(cal.Months[1].Total))
	assert.Empty(t, cal.Months[5].Entries)
	assert.True(t, decimal.RequireFromString("7.5").Equal(cal.Quarters[0]))
	assert.True(t, decimal.Zero.Equal(cal.Quarters[1]))
	assert.True(t, decimal.RequireFromString("2.5").Equal(cal.Quarters[3]))
	assert.True(t, decimal.NewFromInt(10).Equal(cal.Total))
}

func TestBuildCalendar_Empty(t *testing.T) {
	cal := BuildCalendar(nil, 2025)
	require.Len(t, cal.Months, 12)
	assert.Equal(t, 12, cal.Months[11].Month)
	assert.True(t, cal.Total.IsZero())
}
