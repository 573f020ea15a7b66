package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nexushealth/carepulse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := &config.Config{}
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "test.db")

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestProfile(t *testing.T, s *Store) *UserProfile {
	t.Helper()

	p := &UserProfile{
		Name:      "Asha",
		Age:       64,
		Condition: "diabetes",
		WakeTime:  "06:30",
		SleepTime: "22:00",
	}
	require.NoError(t, s.CreateProfile(p))
	return p
}

func TestProfileLifecycle(t *testing.T) {
	s := newTestStore(t)

	p := newTestProfile(t, s)
	assert.Contains(t, p.ID, "usr_")
	assert.Equal(t, "en", p.Language)

	got, err := s.GetProfile(p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Asha", got.Name)

	got.SleepTime = "21:30"
	require.NoError(t, s.UpdateProfile(got))

	got, err = s.GetProfile(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "21:30", got.SleepTime)

	all, err := s.ListProfiles()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetProfileMissing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetProfile("usr_nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMedicineTimesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := newTestProfile(t, s)

	med := &Medicine{
		UserID: p.ID,
		Name:   "Metformin",
		Dosage: "500mg",
		Times:  []string{"08:00", "20:00"},
	}
	require.NoError(t, s.CreateMedicine(med))
	assert.Contains(t, med.ID, "med_")
	assert.Equal(t, PriorityMedium, med.Priority)

	meds, err := s.ActiveMedicines(p.ID)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, []string{"08:00", "20:00"}, meds[0].Times)

	require.NoError(t, s.DeactivateMedicine(med.ID))
	meds, err = s.ActiveMedicines(p.ID)
	require.NoError(t, err)
	assert.Empty(t, meds)

	err = s.DeactivateMedicine("med_missing")
	assert.Error(t, err)
}

func TestReplaceRemindersSwapsActiveSet(t *testing.T) {
	s := newTestStore(t)
	p := newTestProfile(t, s)

	first := []ReminderEvent{
		{Kind: KindWake, Title: "wake", Scheduled: "06:30"},
		{Kind: KindWater, Title: "water", Scheduled: "08:00"},
	}
	require.NoError(t, s.ReplaceReminders(p.ID, first))

	second := []ReminderEvent{
		{Kind: KindSleep, Title: "sleep", Scheduled: "21:30"},
	}
	require.NoError(t, s.ReplaceReminders(p.ID, second))

	active, err := s.ActiveReminders(p.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, KindSleep, active[0].Kind)
	assert.True(t, active[0].Active)
}

func TestActiveRemindersOrderedByTime(t *testing.T) {
	s := newTestStore(t)
	p := newTestProfile(t, s)

	events := []ReminderEvent{
		{Kind: KindSleep, Scheduled: "21:30"},
		{Kind: KindWake, Scheduled: "06:30"},
		{Kind: KindWater, Scheduled: "08:00"},
	}
	require.NoError(t, s.ReplaceReminders(p.ID, events))

	active, err := s.ActiveReminders(p.ID)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, "06:30", active[0].Scheduled)
	assert.Equal(t, "08:00", active[1].Scheduled)
	assert.Equal(t, "21:30", active[2].Scheduled)
}

func TestUpdateReminderTime(t *testing.T) {
	s := newTestStore(t)
	p := newTestProfile(t, s)

	events := []ReminderEvent{{Kind: KindMedicine, Scheduled: "08:00"}}
	require.NoError(t, s.ReplaceReminders(p.ID, events))

	active, err := s.ActiveReminders(p.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)

	require.NoError(t, s.UpdateReminderTime(active[0].ID, "08:30"))

	got, err := s.GetReminder(active[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "08:30", got.Scheduled)

	assert.Error(t, s.UpdateReminderTime("rem_missing", "09:00"))
}

func TestActivityCounts(t *testing.T) {
	s := newTestStore(t)
	p := newTestProfile(t, s)
	now := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendActivity(&ActivityLog{
			UserID:     p.ID,
			ReminderID: "rem_1",
			Kind:       KindMedicine,
			Action:     ActionSkipped,
		}))
	}
	require.NoError(t, s.AppendActivity(&ActivityLog{
		UserID:     p.ID,
		ReminderID: "rem_1",
		Kind:       KindMedicine,
		Action:     ActionCompleted,
	}))

	skips, err := s.SkipCount(p.ID, "rem_1", 7)
	require.NoError(t, err)
	assert.EqualValues(t, 3, skips)

	missed, err := s.SkippedMedicineCount(p.ID, now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, missed)

	logs, err := s.LogsForDay(p.ID, now)
	require.NoError(t, err)
	assert.Len(t, logs, 4)
}

func TestUpsertScoreOverwritesSameDay(t *testing.T) {
	s := newTestStore(t)
	p := newTestProfile(t, s)

	rec := &HealthScoreRecord{UserID: p.ID, Day: "2026-08-31", Score: 55.5, Grade: "Needs Improvement"}
	require.NoError(t, s.UpsertScore(rec))

	update := &HealthScoreRecord{UserID: p.ID, Day: "2026-08-31", Score: 82.0, Grade: "Excellent"}
	require.NoError(t, s.UpsertScore(update))
	assert.Equal(t, rec.ID, update.ID)

	records, err := s.RecentScores(p.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 82.0, records[0].Score)
	assert.Equal(t, "Excellent", records[0].Grade)
}

func TestHydrationForDay(t *testing.T) {
	s := newTestStore(t)
	p := newTestProfile(t, s)

	require.NoError(t, s.AddHydration(p.ID, 2))
	require.NoError(t, s.AddHydration(p.ID, 1))

	total, err := s.HydrationForDay(p.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	empty, err := s.HydrationForDay("usr_other", time.Now())
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestAlerts(t *testing.T) {
	s := newTestStore(t)
	p := newTestProfile(t, s)

	require.NoError(t, s.AppendAlert(&CaregiverAlert{
		UserID:  p.ID,
		Contact: "+91-900000001",
		Message: "missed doses",
	}))

	alerts, err := s.RecentAlerts(p.ID, 20)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].ID, "alert_")

	count, err := s.AlertsForDay(p.ID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestArchivePrescription(t *testing.T) {
	s := newTestStore(t)
	p := newTestProfile(t, s)

	require.NoError(t, s.ArchivePrescription(&PrescriptionRecord{
		UserID:  p.ID,
		RawText: "Metformin 500mg twice daily",
	}))

	records, err := s.RecentPrescriptions(p.ID, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].ID, "rx_")
}
