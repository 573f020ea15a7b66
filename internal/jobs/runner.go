// Package jobs runs the recurring background work: nightly score
// computation and the hourly caregiver sweep.
package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nexushealth/carepulse/internal/config"
	"github.com/nexushealth/carepulse/internal/score"
	"github.com/nexushealth/carepulse/internal/store"
)

// ProfileLister enumerates the users the sweeps cover.
type ProfileLister interface {
	ListProfiles() ([]store.UserProfile, error)
}

// Scorer computes one user's daily score.
type Scorer interface {
	Compute(userID string, day time.Time) (*score.Result, error)
}

// Monitor runs one user's caregiver check.
type Monitor interface {
	Sweep(userID string, day time.Time) (bool, error)
}

// Runner manages the cron-driven sweeps.
type Runner struct {
	cfg     config.JobsConfig
	store   ProfileLister
	scorer  Scorer
	monitor Monitor
	logger  *zap.Logger

	cron    *cron.Cron
	running bool
	mu      sync.RWMutex
}

// NewRunner creates a new jobs runner
func NewRunner(cfg config.JobsConfig, st ProfileLister, scorer Scorer, monitor Monitor, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		store:   st,
		scorer:  scorer,
		monitor: monitor,
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start registers the sweeps and starts the scheduler
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("jobs runner already running")
	}

	if _, err := r.cron.AddFunc(r.cfg.ScoreCron, r.SweepScores); err != nil {
		return fmt.Errorf("invalid score cron %q: %w", r.cfg.ScoreCron, err)
	}
	if _, err := r.cron.AddFunc(r.cfg.AlertInterval, r.SweepAlerts); err != nil {
		return fmt.Errorf("invalid alert interval %q: %w", r.cfg.AlertInterval, err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info("jobs runner started",
		zap.String("score_cron", r.cfg.ScoreCron),
		zap.String("alert_interval", r.cfg.AlertInterval))

	return nil
}

// Stop stops the scheduler and waits for in-flight sweeps
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	<-r.cron.Stop().Done()
	r.logger.Info("jobs runner stopped")
}

// IsRunning returns whether the runner is active
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// SweepScores computes and records the daily score for every user
func (r *Runner) SweepScores() {
	profiles, err := r.store.ListProfiles()
	if err != nil {
		r.logger.Error("failed to list profiles for score sweep", zap.Error(err))
		return
	}

	now := time.Now()
	for _, p := range profiles {
		if _, err := r.scorer.Compute(p.ID, now); err != nil {
			r.logger.Error("score sweep failed for user",
				zap.String("user_id", p.ID),
				zap.Error(err))
		}
	}
}

// SweepAlerts runs the caregiver check for every user
func (r *Runner) SweepAlerts() {
	profiles, err := r.store.ListProfiles()
	if err != nil {
		r.logger.Error("failed to list profiles for alert sweep", zap.Error(err))
		return
	}

	now := time.Now()
	for _, p := range profiles {
		raised, err := r.monitor.Sweep(p.ID, now)
		if err != nil {
			r.logger.Error("alert sweep failed for user",
				zap.String("user_id", p.ID),
				zap.Error(err))
			continue
		}
		if raised {
			r.logger.Warn("alert raised during sweep", zap.String("user_id", p.ID))
		}
	}
}
