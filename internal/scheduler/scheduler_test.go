package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/henmanager/internal/config"
	"github.com/mamadbah2/henmanager/internal/domain/models"
)

type fakeReports struct {
	snapshots []time.Time
	digestFor []time.Time
	digestErr error
}

func (f *fakeReports) DailySnapshot(_ context.Context, day time.Time) (models.DailyReport, error) {
	f.snapshots = append(f.snapshots, day)
	return models.DailyReport{Date: day}, nil
}

func (f *fakeReports) WeeklyDigest(_ context.Context, now time.Time) (string, error) {
	f.digestFor = append(f.digestFor, now)
	return "digest", f.digestErr
}

type fakeNotifier struct{ messages []string }

func (f *fakeNotifier) Notify(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func testConfig() config.ReportingConfig {
	return config.ReportingConfig{CronSchedule: "0 20 * * *", WeeklyCronSchedule: "0 19 * * 0", Timezone: "Africa/Conakry"}
}

func TestJobsUseFarmDay(t *testing.T) {
	reports := &fakeReports{}
	notifier := &fakeNotifier{}
	s, err := NewScheduler(testConfig(), reports, notifier, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 6, 7, 23, 30, 0, 0, time.UTC) }

	s.storeDailyReport()
	s.sendWeeklyReport()

	require.Len(t, reports.snapshots, 1)
	assert.Equal(t, time.Date(2026, 6, 7, 0, 0, 0, 0, time.UTC), reports.snapshots[0])
	assert.Equal(t, []string{"digest"}, notifier.messages)
}

func TestWeeklyReportNotSentOnError(t *testing.T) {
	reports := &fakeReports{digestErr: errors.New("db down")}
	notifier := &fakeNotifier{}
	s, err := NewScheduler(testConfig(), reports, notifier, nil)
	require.NoError(t, err)

	s.sendWeeklyReport()
	assert.Empty(t, notifier.messages)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.WeeklyCronSchedule = "every sunday"
	s, err := NewScheduler(cfg, &fakeReports{}, nil, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())
	s.Stop(context.Background())
}

func TestNewSchedulerRejectsUnknownTimezone(t *testing.T) {
	cfg := testConfig()
	cfg.Timezone = "Mars/Olympus"
	_, err := NewScheduler(cfg, &fakeReports{}, nil, nil)
	assert.Error(t, err)
}
