// Package adaptive suggests new reminder slots for habitually skipped
// reminders.
package adaptive

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nexushealth/carepulse/internal/config"
	apperrors "github.com/nexushealth/carepulse/internal/errors"
	"github.com/nexushealth/carepulse/internal/metrics"
	"github.com/nexushealth/carepulse/internal/store"
)

// Store is the persistence surface the engine needs.
type Store interface {
	ActiveReminders(userID string) ([]store.ReminderEvent, error)
	SkipCount(userID, reminderID string, days int) (int64, error)
	UpdateReminderTime(id, scheduled string) error
}

// Suggestion proposes moving one reminder to a later slot.
type Suggestion struct {
	ReminderID    string `json:"reminder_id"`
	Title         string `json:"title"`
	CurrentTime   string `json:"current_time"`
	SuggestedTime string `json:"suggested_time"`
	Reason        string `json:"reason"`
}

// Engine inspects skip history and proposes reschedules.
type Engine struct {
	store  Store
	cfg    config.AdaptiveConfig
	logger *zap.Logger
}

func NewEngine(s Store, cfg config.AdaptiveConfig, logger *zap.Logger) *Engine {
	return &Engine{store: s, cfg: cfg, logger: logger}
}

// Suggest proposes a later slot for every active reminder skipped at least
// the threshold number of times in the lookback window. A reminder with a
// malformed stored time is skipped rather than failing the whole run.
func (e *Engine) Suggest(userID string) ([]Suggestion, error) {
	reminders, err := e.store.ActiveReminders(userID)
	if err != nil {
		return nil, err
	}

	var suggestions []Suggestion
	for _, r := range reminders {
		skipped, err := e.store.SkipCount(userID, r.ID, e.cfg.LookbackDays)
		if err != nil {
			return nil, err
		}
		if skipped < int64(e.cfg.SkipThreshold) {
			continue
		}

		shifted, err := shift(r.Scheduled, e.cfg.ShiftMinutes)
		if err != nil {
			e.logger.Warn("skipping reminder with malformed time",
				zap.String("reminder_id", r.ID),
				zap.String("scheduled", r.Scheduled))
			continue
		}

		suggestions = append(suggestions, Suggestion{
			ReminderID:    r.ID,
			Title:         r.Title,
			CurrentTime:   r.Scheduled,
			SuggestedTime: shifted,
			Reason:        fmt.Sprintf("Skipped %d times in last %d days", skipped, e.cfg.LookbackDays),
		})
	}

	metrics.RecordSuggestions(len(suggestions))
	return suggestions, nil
}

// Apply moves a reminder to the accepted slot.
func (e *Engine) Apply(reminderID, scheduled string) error {
	if !config.ValidHHMM(scheduled) {
		return apperrors.ErrMalformedTime
	}

	if err := e.store.UpdateReminderTime(reminderID, scheduled); err != nil {
		return err
	}

	e.logger.Info("reminder rescheduled",
		zap.String("reminder_id", reminderID),
		zap.String("scheduled", scheduled))
	return nil
}

// shift adds minutes to an HH:MM time, wrapping past midnight.
func shift(t string, minutes int) (string, error) {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return "", apperrors.ErrMalformedTime
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", apperrors.ErrMalformedTime
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", apperrors.ErrMalformedTime
	}

	m += minutes
	h = (h + m/60) % 24
	m = m % 60
	return fmt.Sprintf("%02d:%02d", h, m), nil
}
