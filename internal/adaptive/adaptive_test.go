package adaptive

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexushealth/carepulse/internal/config"
	apperrors "github.com/nexushealth/carepulse/internal/errors"
	"github.com/nexushealth/carepulse/internal/store"
)

func testAdaptiveConfig() config.AdaptiveConfig {
	return config.AdaptiveConfig{
		SkipThreshold: 3,
		LookbackDays:  7,
		ShiftMinutes:  30,
	}
}

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	s, err := store.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return NewEngine(s, testAdaptiveConfig(), zap.NewNop()), s
}

func skipReminder(t *testing.T, s *store.Store, userID, reminderID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.AppendActivity(&store.ActivityLog{
			UserID:     userID,
			ReminderID: reminderID,
			Kind:       store.KindMedicine,
			Action:     store.ActionSkipped,
		}))
	}
}

func TestSuggestThreshold(t *testing.T) {
	engine, s := newTestEngine(t)
	userID := "usr_1"

	events := []store.ReminderEvent{
		{Kind: store.KindMedicine, Title: "💊 Medicine: Metformin", Scheduled: "08:45"},
		{Kind: store.KindWater, Title: "💧 Hydration Check", Scheduled: "10:00"},
	}
	require.NoError(t, s.ReplaceReminders(userID, events))

	active, err := s.ActiveReminders(userID)
	require.NoError(t, err)
	require.Len(t, active, 2)

	skipReminder(t, s, userID, active[0].ID, 3)
	skipReminder(t, s, userID, active[1].ID, 2)

	suggestions, err := engine.Suggest(userID)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)

	got := suggestions[0]
	assert.Equal(t, active[0].ID, got.ReminderID)
	assert.Equal(t, "08:45", got.CurrentTime)
	assert.Equal(t, "09:15", got.SuggestedTime)
	assert.Equal(t, "Skipped 3 times in last 7 days", got.Reason)
}

func TestSuggestWrapsPastMidnight(t *testing.T) {
	engine, s := newTestEngine(t)
	userID := "usr_1"

	require.NoError(t, s.ReplaceReminders(userID, []store.ReminderEvent{
		{Kind: store.KindSleep, Title: "🌙 Sleep Reminder", Scheduled: "23:45"},
	}))
	active, err := s.ActiveReminders(userID)
	require.NoError(t, err)
	skipReminder(t, s, userID, active[0].ID, 4)

	suggestions, err := engine.Suggest(userID)
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "00:15", suggestions[0].SuggestedTime)
}

func TestSuggestSkipsMalformedTime(t *testing.T) {
	engine, s := newTestEngine(t)
	userID := "usr_1"

	require.NoError(t, s.ReplaceReminders(userID, []store.ReminderEvent{
		{Kind: store.KindMedicine, Scheduled: "bogus"},
	}))
	active, err := s.ActiveReminders(userID)
	require.NoError(t, err)
	skipReminder(t, s, userID, active[0].ID, 5)

	suggestions, err := engine.Suggest(userID)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestApply(t *testing.T) {
	engine, s := newTestEngine(t)
	userID := "usr_1"

	require.NoError(t, s.ReplaceReminders(userID, []store.ReminderEvent{
		{Kind: store.KindMedicine, Scheduled: "08:00"},
	}))
	active, err := s.ActiveReminders(userID)
	require.NoError(t, err)

	require.NoError(t, engine.Apply(active[0].ID, "08:30"))

	got, err := s.GetReminder(active[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "08:30", got.Scheduled)
}

func TestApplyRejectsMalformedTime(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, bad := range []string{"25:00", "8:00", "08:60", "0800", ""} {
		err := engine.Apply("rem_x", bad)
		assert.ErrorIs(t, err, apperrors.ErrMalformedTime, "time %q", bad)
	}
}

func TestShift(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"08:45", "09:15"},
		{"23:45", "00:15"},
		{"11:30", "12:00"},
		{"00:00", "00:30"},
	}

	for _, tt := range tests {
		got, err := shift(tt.in, 30)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "shift %s", tt.in)
	}

	_, err := shift("nope", 30)
	assert.Error(t, err)
}
