package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/yieldfolio/internal/domain"
	"github.com/aristath/yieldfolio/internal/modules/dividends"
	testingpkg "github.com/aristath/yieldfolio/internal/testing"
	"github.com/aristath/yieldfolio/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockScheduleService struct {
	mock.Mock
}

func (m *MockScheduleService) RegenerateSchedules(ctx context.Context, ownerID string) (dividends.Summary, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(dividends.Summary), args.Error(1)
}

func (m *MockScheduleService) DeleteFutureDividends(ctx context.Context, ownerID string) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func seed(t *testing.T, repo *dividends.EntryRepository, id, owner string, year, month int) {
	t.Helper()
	ex := time.Date(year, time.Month(month), dividends.ExDividendDay, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(context.Background(), &dividends.Entry{
		ID:               id,
		OwnerID:          owner,
		Symbol:           "KO",
		Shares:           decimal.NewFromInt(10),
		DividendPerShare: decimal.RequireFromString("0.5"),
		TotalAmount:      decimal.NewFromInt(5),
		ExDividendDate:   ex,
		PaymentDate:      dividends.PaymentDate(ex),
		PayoutFrequency:  domain.FrequencyQuarterly,
		Year:             year,
		Month:            month,
		Quarter:          dividends.QuarterOf(month),
	}))
}

func setup(t *testing.T) (chi.Router, *MockScheduleService) {
	t.Helper()
	repo := dividends.NewEntryRepository(testingpkg.NewMemoryDB(t), zerolog.Nop())
	seed(t, repo, "a", "u1", 2025, 3)
	seed(t, repo, "b", "u1", 2025, 6)
	seed(t, repo, "c", "u1", 2026, 3)
	seed(t, repo, "d", "u2", 2025, 3)

	schedule := &MockScheduleService{}
	h := NewHandler(repo, schedule, zerolog.Nop())
	h.now = func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) }

	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return router, schedule
}

func get(router http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(utils.OwnerHeader, "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleList(t *testing.T) {
	router, _ := setup(t)

	rec := get(router, "GET", "/dividends/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":3`)

	rec = get(router, "GET", "/dividends/?year=2026")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = get(router, "GET", "/dividends/?year=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCalendar_DefaultsToCurrentYear(t *testing.T) {
	router, _ := setup(t)

	rec := get(router, "GET", "/dividends/calendar")
	require.Equal(t, http.StatusOK, rec.Code)

	var cal dividends.Calendar
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cal))
	assert.Equal(t, 2025, cal.Year)
	assert.True(t, decimal.NewFromInt(10).Equal(cal.Total))
	assert.Len(t, cal.Months[2].Entries, 1)
	assert.True(t, decimal.NewFromInt(5).Equal(cal.Quarters[1]))
}

func TestHandleGenerate(t *testing.T) {
	router, schedule := setup(t)
	schedule.On("RegenerateSchedules", mock.Anything, "u1").Return(dividends.Summary{Generated: 4}, nil).Once()
	schedule.On("RegenerateSchedules", mock.Anything, "u1").Return(dividends.Summary{}, errors.New("db locked")).Once()

	rec := get(router, "POST", "/dividends/generate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"generated":4`)

	rec = get(router, "POST", "/dividends/generate")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	schedule.AssertExpectations(t)
}

func TestHandleDeleteFuture(t *testing.T) {
	router, schedule := setup(t)
	schedule.On("DeleteFutureDividends", mock.Anything, "u1").Return(int64(3), nil)

	rec := get(router, "DELETE", "/dividends/future")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":3`)
}
