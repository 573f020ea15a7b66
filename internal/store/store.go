package store

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite" // Pure Go SQLite driver
	"github.com/nexushealth/carepulse/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/nexushealth/carepulse/internal/errors"
)

// Store provides access to the SQLite database
type Store struct {
	db *gorm.DB

	userLocksMu sync.Mutex
	userLocks   map[string]*sync.Mutex
}

// New creates a new Store instance
func New(cfg *config.Config) (*Store, error) {
	sqlitePath := cfg.Storage.SQLitePath
	if sqlitePath == "" {
		sqlitePath = filepath.Join(cfg.Storage.DataDir, "carepulse.db")
	}

	// Open SQLite with optimizations
	sqliteDB, err := sql.Open("sqlite", sqlitePath+"?_journal=WAL&_synchronous=NORMAL&_busy_timeout=5000&_cache_size=-64000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	sqliteDB.SetMaxOpenConns(10)
	sqliteDB.SetMaxIdleConns(5)
	sqliteDB.SetConnMaxLifetime(time.Hour)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqliteDB}, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := db.AutoMigrate(
		&UserProfile{},
		&Medicine{},
		&ReminderEvent{},
		&ActivityLog{},
		&HealthScoreRecord{},
		&CaregiverAlert{},
		&HydrationLog{},
		&PrescriptionRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return &Store{
		db:        db,
		userLocks: make(map[string]*sync.Mutex),
	}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the GORM database instance
func (s *Store) DB() *gorm.DB {
	return s.db
}

// userLock returns the mutex serializing schedule writes for one user
func (s *Store) userLock(userID string) *sync.Mutex {
	s.userLocksMu.Lock()
	defer s.userLocksMu.Unlock()

	mu, ok := s.userLocks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.userLocks[userID] = mu
	}
	return mu
}

// ==================== Profile Methods ====================

// CreateProfile creates a new user profile
func (s *Store) CreateProfile(p *UserProfile) error {
	return s.db.Create(p).Error
}

// GetProfile retrieves a profile by ID; a missing profile is (nil, nil)
func (s *Store) GetProfile(userID string) (*UserProfile, error) {
	var p UserProfile
	if err := s.db.First(&p, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProfile updates a profile
func (s *Store) UpdateProfile(p *UserProfile) error {
	return s.db.Save(p).Error
}

// ListProfiles lists all user profiles
func (s *Store) ListProfiles() ([]UserProfile, error) {
	var profiles []UserProfile
	err := s.db.Order("created_at ASC").Find(&profiles).Error
	return profiles, err
}

// ==================== Medicine Methods ====================

// CreateMedicine creates a new medicine
func (s *Store) CreateMedicine(m *Medicine) error {
	m.Active = true
	return s.db.Create(m).Error
}

// ActiveMedicines retrieves a user's active medicines
func (s *Store) ActiveMedicines(userID string) ([]Medicine, error) {
	var meds []Medicine
	err := s.db.Where("user_id = ? AND active = ?", userID, true).
		Order("created_at ASC").
		Find(&meds).Error
	return meds, err
}

// DeactivateMedicine marks a medicine inactive
func (s *Store) DeactivateMedicine(id string) error {
	res := s.db.Model(&Medicine{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrMedicineNotFound
	}
	return nil
}

// ==================== Reminder Methods ====================

// ActiveReminders retrieves a user's active reminders ordered by time of day
func (s *Store) ActiveReminders(userID string) ([]ReminderEvent, error) {
	var events []ReminderEvent
	err := s.db.Where("user_id = ? AND active = ?", userID, true).
		Order("scheduled ASC, created_at ASC").
		Find(&events).Error
	return events, err
}

// GetReminder retrieves one reminder by ID
func (s *Store) GetReminder(id string) (*ReminderEvent, error) {
	var event ReminderEvent
	if err := s.db.First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// ReplaceReminders atomically swaps a user's active reminder set for a new
// one. Concurrent replacements for the same user are serialized so a reader
// never observes a mix of old and new plans.
func (s *Store) ReplaceReminders(userID string, events []ReminderEvent) error {
	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&ReminderEvent{}).
			Where("user_id = ? AND active = ?", userID, true).
			Update("active", false).Error; err != nil {
			return err
		}

		for i := range events {
			events[i].UserID = userID
			events[i].Active = true
			if err := tx.Create(&events[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateReminderTime moves one active reminder to a new HH:MM slot
func (s *Store) UpdateReminderTime(id, scheduled string) error {
	res := s.db.Model(&ReminderEvent{}).
		Where("id = ? AND active = ?", id, true).
		Update("scheduled", scheduled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrReminderNotFound
	}
	return nil
}

// ==================== Activity Methods ====================

// AppendActivity records a user's response to a reminder
func (s *Store) AppendActivity(log *ActivityLog) error {
	return s.db.Create(log).Error
}

// LogsForDay retrieves a user's activity logs within one calendar day
func (s *Store) LogsForDay(userID string, day time.Time) ([]ActivityLog, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var logs []ActivityLog
	err := s.db.Where("user_id = ? AND logged_at >= ? AND logged_at < ?", userID, start, end).
		Order("logged_at ASC").
		Find(&logs).Error
	return logs, err
}

// SkipCount counts how often a reminder was skipped in the last N days
func (s *Store) SkipCount(userID, reminderID string, days int) (int64, error) {
	since := time.Now().AddDate(0, 0, -days)

	var count int64
	err := s.db.Model(&ActivityLog{}).
		Where("user_id = ? AND reminder_id = ? AND action = ? AND logged_at >= ?",
			userID, reminderID, ActionSkipped, since).
		Count(&count).Error
	return count, err
}

// SkippedMedicineCount counts skipped medicine responses within one day
func (s *Store) SkippedMedicineCount(userID string, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	err := s.db.Model(&ActivityLog{}).
		Where("user_id = ? AND kind = ? AND action = ? AND logged_at >= ? AND logged_at < ?",
			userID, KindMedicine, ActionSkipped, start, end).
		Count(&count).Error
	return count, err
}

// ==================== Score Methods ====================

// UpsertScore writes the score for one user-day, replacing a previous value
func (s *Store) UpsertScore(rec *HealthScoreRecord) error {
	var existing HealthScoreRecord
	err := s.db.First(&existing, "user_id = ? AND day = ?", rec.UserID, rec.Day).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.db.Create(rec).Error
		}
		return err
	}

	existing.Score = rec.Score
	existing.Grade = rec.Grade
	existing.BreakdownJSON = rec.BreakdownJSON
	if err := s.db.Save(&existing).Error; err != nil {
		return err
	}
	rec.ID = existing.ID
	return nil
}

// RecentScores retrieves a user's most recent daily scores, newest first
func (s *Store) RecentScores(userID string, limit int) ([]HealthScoreRecord, error) {
	var records []HealthScoreRecord
	err := s.db.Where("user_id = ?", userID).
		Order("day DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// ==================== Hydration Methods ====================

// AddHydration records glasses of water drunk now
func (s *Store) AddHydration(userID string, glasses int) error {
	return s.db.Create(&HydrationLog{UserID: userID, Glasses: glasses}).Error
}

// HydrationForDay sums a user's logged glasses within one calendar day
func (s *Store) HydrationForDay(userID string, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var total sql.NullInt64
	err := s.db.Model(&HydrationLog{}).
		Select("SUM(glasses)").
		Where("user_id = ? AND logged_at >= ? AND logged_at < ?", userID, start, end).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

// ==================== Alert Methods ====================

// AppendAlert records a caregiver escalation
func (s *Store) AppendAlert(a *CaregiverAlert) error {
	return s.db.Create(a).Error
}

// RecentAlerts retrieves a user's latest alerts, newest first
func (s *Store) RecentAlerts(userID string, limit int) ([]CaregiverAlert, error) {
	var alerts []CaregiverAlert
	err := s.db.Where("user_id = ?", userID).
		Order("sent_at DESC").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}

// AlertsForDay counts alerts already raised for a user within one day
func (s *Store) AlertsForDay(userID string, day time.Time) (int64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	err := s.db.Model(&CaregiverAlert{}).
		Where("user_id = ? AND sent_at >= ? AND sent_at < ?", userID, start, end).
		Count(&count).Error
	return count, err
}

// ==================== Prescription Methods ====================

// ArchivePrescription stores the raw text and extraction result of a scan
func (s *Store) ArchivePrescription(rec *PrescriptionRecord) error {
	return s.db.Create(rec).Error
}

// RecentPrescriptions retrieves a user's archived scans, newest first
func (s *Store) RecentPrescriptions(userID string, limit int) ([]PrescriptionRecord, error) {
	var records []PrescriptionRecord
	err := s.db.Where("user_id = ?", userID).
		Order("parsed_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
