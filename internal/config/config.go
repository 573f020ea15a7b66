package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for CarePulse
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Adaptive AdaptiveConfig `mapstructure:"adaptive"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// ScheduleConfig holds the defaults applied to incomplete profiles
type ScheduleConfig struct {
	DefaultWakeTime  string `mapstructure:"default_wake_time"`
	DefaultSleepTime string `mapstructure:"default_sleep_time"`
	DefaultLanguage  string `mapstructure:"default_language"`
	DefaultAge       int    `mapstructure:"default_age"`
	MaxHealthTips    int    `mapstructure:"max_health_tips"`
}

// AdaptiveConfig holds rescheduling settings
type AdaptiveConfig struct {
	SkipThreshold  int `mapstructure:"skip_threshold"`
	LookbackDays   int `mapstructure:"lookback_days"`
	ShiftMinutes   int `mapstructure:"shift_minutes"`
}

// AlertsConfig holds caregiver escalation settings
type AlertsConfig struct {
	MissedMedicineThreshold int `mapstructure:"missed_medicine_threshold"`
}

// JobsConfig holds the background job schedules
type JobsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ScoreCron     string `mapstructure:"score_cron"`
	AlertInterval string `mapstructure:"alert_interval"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidHHMM reports whether s is a well-formed 24h HH:MM time.
func ValidHHMM(s string) bool {
	return hhmmRe.MatchString(s)
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.SetDefault("storage.sqlite_path", filepath.Join(dataDir, "carepulse.db"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "carepulse.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (CAREPULSE_SCHEDULE_DEFAULT_WAKE_TIME, etc.)
	v.SetEnvPrefix("CAREPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schedule.default_wake_time", "06:30")
	v.SetDefault("schedule.default_sleep_time", "22:00")
	v.SetDefault("schedule.default_language", "en")
	v.SetDefault("schedule.default_age", 30)
	v.SetDefault("schedule.max_health_tips", 2)

	v.SetDefault("adaptive.skip_threshold", 3)
	v.SetDefault("adaptive.lookback_days", 7)
	v.SetDefault("adaptive.shift_minutes", 30)

	v.SetDefault("alerts.missed_medicine_threshold", 3)

	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.score_cron", "55 23 * * *")
	v.SetDefault("jobs.alert_interval", "@every 1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "carepulse")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "carepulse")
}

func validate(cfg *Config) error {
	if !ValidHHMM(cfg.Schedule.DefaultWakeTime) {
		return fmt.Errorf("schedule.default_wake_time %q is not HH:MM", cfg.Schedule.DefaultWakeTime)
	}
	if !ValidHHMM(cfg.Schedule.DefaultSleepTime) {
		return fmt.Errorf("schedule.default_sleep_time %q is not HH:MM", cfg.Schedule.DefaultSleepTime)
	}
	if cfg.Adaptive.SkipThreshold < 1 {
		return fmt.Errorf("adaptive.skip_threshold must be >= 1")
	}
	if cfg.Adaptive.LookbackDays < 1 {
		return fmt.Errorf("adaptive.lookback_days must be >= 1")
	}
	if cfg.Alerts.MissedMedicineThreshold < 1 {
		return fmt.Errorf("alerts.missed_medicine_threshold must be >= 1")
	}
	return nil
}
