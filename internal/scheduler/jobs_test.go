package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/yieldfolio/internal/modules/dividends"
	"github.com/aristath/yieldfolio/internal/modules/portfolio"
	"github.com/aristath/yieldfolio/internal/reliability"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRegenerator struct {
	mock.Mock
}

func (m *MockRegenerator) RegenerateAll(ctx context.Context) (dividends.Summary, error) {
	args := m.Called(ctx)
	return args.Get(0).(dividends.Summary), args.Error(1)
}

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) RefreshAll(ctx context.Context) ([]portfolio.RefreshResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]portfolio.RefreshResult), args.Error(1)
}

type MockBackupRunner struct {
	mock.Mock
}

func (m *MockBackupRunner) CreateAndUploadBackup(ctx context.Context) (*reliability.BackupInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reliability.BackupInfo), args.Error(1)
}

func (m *MockBackupRunner) RotateOldBackups(ctx context.Context, retentionDays int) (int, error) {
	args := m.Called(ctx, retentionDays)
	return args.Int(0), args.Error(1)
}

func TestProjectDividendsJob(t *testing.T) {
	tests := []struct {
		name    string
		summary dividends.Summary
		err     error
		wantErr string
	}{
		{"success", dividends.Summary{Generated: 8, Skipped: 4}, nil, ""},
		{"owner failure", dividends.Summary{Generated: 4}, errors.New("owner u2: locked"), "owner u2: locked"},
		{"holding failures", dividends.Summary{Generated: 4, Failed: 2}, nil, "2 holdings failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockRegenerator{}
			svc.On("RegenerateAll", mock.Anything).Return(tt.summary, tt.err)

			job := NewProjectDividendsJob(svc, zerolog.Nop())
			assert.Equal(t, "project_dividends", job.Name())

			err := job.Run()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestRefreshPricesJob(t *testing.T) {
	svc := &MockRefresher{}
	svc.On("RefreshAll", mock.Anything).Return([]portfolio.RefreshResult{
		{Symbol: "KO", Updated: true, Holdings: 2},
		{Symbol: "ZZZZ", Error: "no market data available"},
	}, nil).Once()
	svc.On("RefreshAll", mock.Anything).Return(nil, errors.New("db closed")).Once()

	job := NewRefreshPricesJob(svc, zerolog.Nop())
	assert.Equal(t, "refresh_prices", job.Name())

	// Per-symbol misses are not job failures
	require.NoError(t, job.Run())

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db closed")
	svc.AssertExpectations(t)
}

func TestBackupJob(t *testing.T) {
	t.Run("uploads then rotates", func(t *testing.T) {
		runner := &MockBackupRunner{}
		runner.On("CreateAndUploadBackup", mock.Anything).Return(&reliability.BackupInfo{Key: "k"}, nil)
		runner.On("RotateOldBackups", mock.Anything, 14).Return(2, nil)

		job := NewBackupJob(runner, 14, zerolog.Nop())
		assert.Equal(t, "backup", job.Name())
		require.NoError(t, job.Run())
		runner.AssertExpectations(t)
	})

	t.Run("failed upload skips rotation", func(t *testing.T) {
		runner := &MockBackupRunner{}
		runner.On("CreateAndUploadBackup", mock.Anything).Return(nil, errors.New("bucket unreachable"))

		err := NewBackupJob(runner, 14, zerolog.Nop()).Run()
		require.Error(t, err)
		runner.AssertNotCalled(t, "RotateOldBackups", mock.Anything, mock.Anything)
	})

	t.Run("rotation failure is reported", func(t *testing.T) {
		runner := &MockBackupRunner{}
		runner.On("CreateAndUploadBackup", mock.Anything).Return(&reliability.BackupInfo{Key: "k"}, nil)
		runner.On("RotateOldBackups", mock.Anything, 0).Return(0, errors.New("list failed"))

		err := NewBackupJob(runner, 0, zerolog.Nop()).Run()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rotation")
	})
}
