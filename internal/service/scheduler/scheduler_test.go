package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"EconDash/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, opts models.RunOptions) (*models.RunSummary, error) {
	args := m.Called(ctx, opts)
	s, _ := args.Get(0).(*models.RunSummary)
	return s, args.Error(1)
}

func TestNewRejectsBadSettings(t *testing.T) {
	_, err := New(&mockRunner{}, "someday", "06:00", "UTC", time.Minute, nil)
	assert.Error(t, err)
	_, err = New(&mockRunner{}, "saturday", "06:00", "Mars/Olympus", time.Minute, nil)
	assert.Error(t, err)
}

func TestStartSchedulesWeekly(t *testing.T) {
	s, err := New(&mockRunner{}, "Saturday", "06:00", "Europe/Dublin", time.Minute, nil)
	require.NoError(t, err)
	assert.True(t, s.NextRun().IsZero())

	require.NoError(t, s.Start())
	defer s.Stop()

	next := s.NextRun()
	loc, _ := time.LoadLocation("Europe/Dublin")
	next = next.In(loc)
	assert.Equal(t, time.Saturday, next.Weekday())
	assert.Equal(t, 6, next.Hour())
	assert.True(t, next.After(time.Now()))
}

func TestRunOnceTriggersNonForcedRun(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", mock.Anything, models.RunOptions{Trigger: "schedule"}).
		Return(&models.RunSummary{Status: models.RunSuccess}, nil).Once()
	r.On("Run", mock.Anything, mock.Anything).Return(nil, models.ErrRefreshInProgress).Once()
	r.On("Run", mock.Anything, mock.Anything).Return(nil, errors.New("catalog broken")).Once()

	s, err := New(r, "saturday", "06:00", "UTC", time.Minute, nil)
	require.NoError(t, err)

	assert.NotPanics(t, s.runOnce)
	assert.NotPanics(t, s.runOnce)
	assert.NotPanics(t, s.runOnce)
	r.AssertNumberOfCalls(t, "Run", 3)
}
