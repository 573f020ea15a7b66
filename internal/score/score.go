// Package score computes the weighted daily compliance score.
package score

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/nexushealth/carepulse/internal/metrics"
	"github.com/nexushealth/carepulse/internal/store"
)

// Component weights. Compliance and medicine adherence dominate; hydration
// is measured against a fixed 8-glass reference regardless of age group.
const (
	complianceWeight = 0.4
	hydrationWeight  = 0.2
	medicineWeight   = 0.4

	hydrationReference = 8
)

// Grade labels.
const (
	GradeExcellent = "Excellent"
	GradeGood      = "Good"
	GradeNeedsWork = "Needs Improvement"
	GradeRiskAlert = "Risk Alert"
	GradeNone      = "N/A"
)

// Store is the persistence surface the scorer needs.
type Store interface {
	ActiveReminders(userID string) ([]store.ReminderEvent, error)
	LogsForDay(userID string, day time.Time) ([]store.ActivityLog, error)
	HydrationForDay(userID string, day time.Time) (int, error)
	UpsertScore(rec *store.HealthScoreRecord) error
}

// Breakdown itemizes the score components.
type Breakdown struct {
	CompliancePct    float64 `json:"compliance_pct"`
	HydrationGlasses int     `json:"hydration_glasses"`
	HydrationScore   float64 `json:"hydration_score"`
	MedicineScore    float64 `json:"medicine_score"`
	Completed        int     `json:"completed"`
	Skipped          int     `json:"skipped"`
	Snoozed          int     `json:"snoozed"`
	TotalReminders   int     `json:"total_reminders"`
}

// Result is one computed daily score.
type Result struct {
	Score     float64    `json:"score"`
	Grade     string     `json:"grade"`
	Breakdown *Breakdown `json:"breakdown,omitempty"`
}

// Scorer computes and records daily scores.
type Scorer struct {
	store  Store
	logger *zap.Logger
}

func NewScorer(s Store, logger *zap.Logger) *Scorer {
	return &Scorer{store: s, logger: logger}
}

// Compute calculates the score for one user-day and records it. A user with
// no active reminders gets the N/A sentinel and nothing is persisted.
func (s *Scorer) Compute(userID string, day time.Time) (*Result, error) {
	reminders, err := s.store.ActiveReminders(userID)
	if err != nil {
		return nil, err
	}
	if len(reminders) == 0 {
		return &Result{Score: 0, Grade: GradeNone}, nil
	}

	logs, err := s.store.LogsForDay(userID, day)
	if err != nil {
		return nil, err
	}
	hydration, err := s.store.HydrationForDay(userID, day)
	if err != nil {
		return nil, err
	}

	var completed, skipped, snoozed int
	var medCompleted int
	for _, l := range logs {
		switch l.Action {
		case store.ActionCompleted:
			completed++
			if l.Kind == store.KindMedicine {
				medCompleted++
			}
		case store.ActionSkipped:
			skipped++
		case store.ActionSnoozed:
			snoozed++
		}
	}

	medTotal := 0
	for _, r := range reminders {
		if r.Kind == store.KindMedicine {
			medTotal++
		}
	}

	compliance := float64(completed) / float64(len(reminders)) * 100
	hydrationScore := math.Min(float64(hydration)/hydrationReference*100, 100)
	medScore := 100.0
	if medTotal > 0 {
		medScore = float64(medCompleted) / float64(medTotal) * 100
	}

	total := compliance*complianceWeight + hydrationScore*hydrationWeight + medScore*medicineWeight
	total = round1(math.Min(total, 100))

	result := &Result{
		Score: total,
		Grade: gradeFor(total),
		Breakdown: &Breakdown{
			CompliancePct:    round1(compliance),
			HydrationGlasses: hydration,
			HydrationScore:   round1(hydrationScore),
			MedicineScore:    round1(medScore),
			Completed:        completed,
			Skipped:          skipped,
			Snoozed:          snoozed,
			TotalReminders:   len(reminders),
		},
	}

	rec := &store.HealthScoreRecord{
		UserID:        userID,
		Day:           day.Format("2006-01-02"),
		Score:         result.Score,
		Grade:         result.Grade,
		BreakdownJSON: store.ToJSON(result.Breakdown),
	}
	if err := s.store.UpsertScore(rec); err != nil {
		return nil, err
	}

	metrics.RecordScore()
	s.logger.Info("health score computed",
		zap.String("user_id", userID),
		zap.Float64("score", result.Score),
		zap.String("grade", result.Grade))

	return result, nil
}

func gradeFor(score float64) string {
	switch {
	case score >= 80:
		return GradeExcellent
	case score >= 60:
		return GradeGood
	case score >= 40:
		return GradeNeedsWork
	default:
		return GradeRiskAlert
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
