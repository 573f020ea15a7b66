package jobs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexushealth/carepulse/internal/caregiver"
	"github.com/nexushealth/carepulse/internal/config"
	"github.com/nexushealth/carepulse/internal/score"
	"github.com/nexushealth/carepulse/internal/store"
)

func testJobsConfig() config.JobsConfig {
	return config.JobsConfig{
		Enabled:       true,
		ScoreCron:     "55 23 * * *",
		AlertInterval: "@every 1h",
	}
}

func newTestRunner(t *testing.T) (*Runner, *store.Store) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	s, err := store.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	scorer := score.NewScorer(s, zap.NewNop())
	monitor := caregiver.NewMonitor(s, config.AlertsConfig{MissedMedicineThreshold: 3}, zap.NewNop())

	return NewRunner(testJobsConfig(), s, scorer, monitor, zap.NewNop()), s
}

func TestRunnerLifecycle(t *testing.T) {
	r, _ := newTestRunner(t)

	assert.False(t, r.IsRunning())
	require.NoError(t, r.Start())
	assert.True(t, r.IsRunning())

	assert.Error(t, r.Start(), "double start must fail")

	r.Stop()
	assert.False(t, r.IsRunning())
	r.Stop() // second stop is a no-op
}

func TestStartRejectsBadCron(t *testing.T) {
	r, _ := newTestRunner(t)
	r.cfg.ScoreCron = "not a cron"

	assert.Error(t, r.Start())
}

func TestSweepScoresRecordsForAllUsers(t *testing.T) {
	r, s := newTestRunner(t)

	p := &store.UserProfile{Name: "Asha", Age: 64}
	require.NoError(t, s.CreateProfile(p))
	require.NoError(t, s.ReplaceReminders(p.ID, []store.ReminderEvent{
		{Kind: store.KindWater, Scheduled: "10:00"},
	}))

	// A user with no reminders gets the sentinel and no record.
	idle := &store.UserProfile{Name: "Ravi", Age: 40}
	require.NoError(t, s.CreateProfile(idle))

	r.SweepScores()

	records, err := s.RecentScores(p.ID, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	records, err = s.RecentScores(idle.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSweepAlertsRaisesOnce(t *testing.T) {
	r, s := newTestRunner(t)

	p := &store.UserProfile{Name: "Asha", Age: 64, CaregiverContact: "+91-9000000001"}
	require.NoError(t, s.CreateProfile(p))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendActivity(&store.ActivityLog{
			UserID:   p.ID,
			Kind:     store.KindMedicine,
			Action:   store.ActionSkipped,
			LoggedAt: time.Now(),
		}))
	}

	r.SweepAlerts()
	r.SweepAlerts()

	alerts, err := s.RecentAlerts(p.ID, 20)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}
