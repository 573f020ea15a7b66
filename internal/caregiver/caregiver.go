// Package caregiver escalates repeatedly missed medicine doses to a user's
// caregiver contact.
package caregiver

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nexushealth/carepulse/internal/config"
	"github.com/nexushealth/carepulse/internal/metrics"
	"github.com/nexushealth/carepulse/internal/store"
)

// Store is the persistence surface the monitor needs.
type Store interface {
	GetProfile(userID string) (*store.UserProfile, error)
	SkippedMedicineCount(userID string, day time.Time) (int64, error)
	AlertsForDay(userID string, day time.Time) (int64, error)
	AppendAlert(a *store.CaregiverAlert) error
}

// Monitor raises caregiver alerts.
type Monitor struct {
	store  Store
	cfg    config.AlertsConfig
	logger *zap.Logger
}

func NewMonitor(s Store, cfg config.AlertsConfig, logger *zap.Logger) *Monitor {
	return &Monitor{store: s, cfg: cfg, logger: logger}
}

// Check raises an alert when the user skipped at least the threshold number
// of medicine reminders today and has a caregiver contact on file. It
// reports whether an alert was raised.
func (m *Monitor) Check(userID string, day time.Time) (bool, error) {
	missed, err := m.store.SkippedMedicineCount(userID, day)
	if err != nil {
		return false, err
	}
	if missed < int64(m.cfg.MissedMedicineThreshold) {
		return false, nil
	}

	profile, err := m.store.GetProfile(userID)
	if err != nil {
		return false, err
	}
	if profile == nil || profile.CaregiverContact == "" {
		return false, nil
	}

	msg := fmt.Sprintf(
		"HEALTH ALERT: %s has missed %d critical medicine reminders today (%s). Please check on them immediately.",
		profile.Name, missed, day.Format("02 Jan 2006"))

	if err := m.store.AppendAlert(&store.CaregiverAlert{
		UserID:  userID,
		Contact: profile.CaregiverContact,
		Message: msg,
	}); err != nil {
		return false, err
	}

	metrics.RecordAlert()
	m.logger.Warn("caregiver alert raised",
		zap.String("user_id", userID),
		zap.Int64("missed", missed))

	return true, nil
}

// Sweep runs Check but raises at most one alert per user per day, so a
// periodic sweep does not spam the caregiver every hour.
func (m *Monitor) Sweep(userID string, day time.Time) (bool, error) {
	already, err := m.store.AlertsForDay(userID, day)
	if err != nil {
		return false, err
	}
	if already > 0 {
		return false, nil
	}
	return m.Check(userID, day)
}
