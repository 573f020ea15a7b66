package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Storage.DataDir)
	assert.Equal(t, filepath.Join(dir, "carepulse.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, "06:30", cfg.Schedule.DefaultWakeTime)
	assert.Equal(t, "22:00", cfg.Schedule.DefaultSleepTime)
	assert.Equal(t, "en", cfg.Schedule.DefaultLanguage)
	assert.Equal(t, 30, cfg.Schedule.DefaultAge)
	assert.Equal(t, 2, cfg.Schedule.MaxHealthTips)
	assert.Equal(t, 3, cfg.Adaptive.SkipThreshold)
	assert.Equal(t, 7, cfg.Adaptive.LookbackDays)
	assert.Equal(t, 30, cfg.Adaptive.ShiftMinutes)
	assert.Equal(t, 3, cfg.Alerts.MissedMedicineThreshold)
	assert.True(t, cfg.Jobs.Enabled)
	assert.Equal(t, "55 23 * * *", cfg.Jobs.ScoreCron)
	assert.Equal(t, "@every 1h", cfg.Jobs.AlertInterval)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "carepulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schedule:\n  default_wake_time: \"07:15\"\nadaptive:\n  shift_minutes: 45\n"), 0644))

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, "07:15", cfg.Schedule.DefaultWakeTime)
	assert.Equal(t, 45, cfg.Adaptive.ShiftMinutes)
	// Untouched keys keep defaults.
	assert.Equal(t, "22:00", cfg.Schedule.DefaultSleepTime)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CAREPULSE_SCHEDULE_DEFAULT_LANGUAGE", "kn")

	cfg, err := Load("", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "kn", cfg.Schedule.DefaultLanguage)
}

func TestLoadRejectsBadTimes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "carepulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schedule:\n  default_wake_time: \"6:30\"\n"), 0644))

	_, err := Load(path, dir)
	assert.Error(t, err)
}

func TestValidHHMM(t *testing.T) {
	for _, good := range []string{"00:00", "06:30", "23:59"} {
		assert.True(t, ValidHHMM(good), good)
	}
	for _, bad := range []string{"24:00", "6:30", "06:60", "0630", "", "ab:cd"} {
		assert.False(t, ValidHHMM(bad), bad)
	}
}
