package prescription

import (
	"go.uber.org/zap"

	"github.com/nexushealth/carepulse/internal/metrics"
	"github.com/nexushealth/carepulse/internal/store"
)

// Store is the persistence surface the scanner needs.
type Store interface {
	ArchivePrescription(rec *store.PrescriptionRecord) error
	CreateMedicine(m *store.Medicine) error
}

// Scheduler regenerates the daily plan after new medicines are registered.
type Scheduler interface {
	Synthesize(userID string) ([]store.ReminderEvent, error)
}

// Scanner turns prescription text into registered medicines and a fresh
// reminder plan.
type Scanner struct {
	parser    *Parser
	store     Store
	scheduler Scheduler
	logger    *zap.Logger
}

func NewScanner(s Store, scheduler Scheduler, logger *zap.Logger) *Scanner {
	return &Scanner{
		parser:    NewParser(),
		store:     s,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Scan parses the text, archives the scan, registers every extracted
// medicine as a high-priority scan result, and rebuilds the user's schedule
// when anything was added.
func (s *Scanner) Scan(userID, text string) ([]ParsedMedicine, error) {
	parsed := s.parser.Parse(text)

	if err := s.store.ArchivePrescription(&store.PrescriptionRecord{
		UserID:        userID,
		RawText:       text,
		MedicinesJSON: store.ToJSON(parsed),
	}); err != nil {
		return nil, err
	}

	for _, med := range parsed {
		if err := s.store.CreateMedicine(&store.Medicine{
			UserID:       userID,
			Name:         med.Name,
			Dosage:       med.Dosage,
			Times:        med.Times,
			DurationDays: med.DurationDays,
			Priority:     store.PriorityHigh,
			FromScan:     true,
		}); err != nil {
			return nil, err
		}
	}

	metrics.RecordPrescription(len(parsed))
	s.logger.Info("prescription scanned",
		zap.String("user_id", userID),
		zap.Int("medicines", len(parsed)))

	if len(parsed) > 0 {
		if _, err := s.scheduler.Synthesize(userID); err != nil {
			return nil, err
		}
	}

	return parsed, nil
}
