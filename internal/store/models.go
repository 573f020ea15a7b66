package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reminder kinds.
const (
	KindWake      = "wake"
	KindMedicine  = "medicine"
	KindMeal      = "meal"
	KindWater     = "water"
	KindExercise  = "exercise"
	KindHealthTip = "health_tip"
	KindSleep     = "sleep"
)

// Activity log actions.
const (
	ActionCompleted = "completed"
	ActionSkipped   = "skipped"
	ActionSnoozed   = "snoozed"
)

// Priorities.
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
)

// UserProfile represents a person the engine schedules reminders for
type UserProfile struct {
	ID               string    `gorm:"primaryKey" json:"id"`
	Name             string    `json:"name"`
	Age              int       `json:"age"`
	Condition        string    `json:"condition"`
	WakeTime         string    `json:"wake_time"`  // HH:MM
	SleepTime        string    `json:"sleep_time"` // HH:MM
	Language         string    `json:"language"`
	CaregiverContact string    `json:"caregiver_contact"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Medicine represents one prescribed medicine with its intake slots
type Medicine struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"index" json:"user_id"`
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage"`
	Times        []string  `gorm:"-" json:"times"` // HH:MM slots
	TimesJSON    string    `json:"-"`
	DurationDays int       `json:"duration_days"`
	Priority     string    `json:"priority"`
	FromScan     bool      `json:"from_scan"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReminderEvent is one scheduled reminder in a user's active daily plan
type ReminderEvent struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index:idx_user_active" json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Scheduled string    `json:"scheduled"` // HH:MM
	Priority  string    `json:"priority"`
	Active    bool      `gorm:"index:idx_user_active" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActivityLog records a user's response to a reminder
type ActivityLog struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"index:idx_log_user_time" json:"user_id"`
	ReminderID string    `gorm:"index" json:"reminder_id"`
	Kind       string    `json:"kind"`
	Action     string    `json:"action"`
	LoggedAt   time.Time `gorm:"index:idx_log_user_time" json:"logged_at"`
}

// HealthScoreRecord is one computed daily compliance score
type HealthScoreRecord struct {
	ID            string          `gorm:"primaryKey" json:"id"`
	UserID        string          `gorm:"uniqueIndex:idx_score_user_day" json:"user_id"`
	Day           string          `gorm:"uniqueIndex:idx_score_user_day" json:"day"` // YYYY-MM-DD
	Score         float64         `json:"score"`
	Grade         string          `json:"grade"`
	BreakdownJSON json.RawMessage `json:"breakdown,omitempty" gorm:"type:text"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CaregiverAlert is an escalation message raised for a caregiver contact
type CaregiverAlert struct {
	ID      string    `gorm:"primaryKey" json:"id"`
	UserID  string    `gorm:"index" json:"user_id"`
	Contact string    `json:"contact"`
	Message string    `json:"message" gorm:"type:text"`
	SentAt  time.Time `json:"sent_at"`
}

// HydrationLog records glasses of water drunk outside reminder responses
type HydrationLog struct {
	ID       string    `gorm:"primaryKey" json:"id"`
	UserID   string    `gorm:"index:idx_hyd_user_time" json:"user_id"`
	Glasses  int       `json:"glasses"`
	LoggedAt time.Time `gorm:"index:idx_hyd_user_time" json:"logged_at"`
}

// PrescriptionRecord archives a parsed prescription text
type PrescriptionRecord struct {
	ID            string          `gorm:"primaryKey" json:"id"`
	UserID        string          `gorm:"index" json:"user_id"`
	RawText       string          `json:"raw_text" gorm:"type:text"`
	MedicinesJSON json.RawMessage `json:"medicines,omitempty" gorm:"type:text"`
	ParsedAt      time.Time       `json:"parsed_at"`
}

// BeforeCreate hook for UserProfile
func (u *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateID("usr")
	}
	if u.Language == "" {
		u.Language = "en"
	}
	return nil
}

// BeforeCreate hook for Medicine
func (m *Medicine) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateID("med")
	}
	if m.Priority == "" {
		m.Priority = PriorityMedium
	}
	return nil
}

// BeforeSave serializes the intake slots
func (m *Medicine) BeforeSave(tx *gorm.DB) error {
	if m.Times == nil {
		m.Times = []string{}
	}
	b, err := json.Marshal(m.Times)
	if err != nil {
		return err
	}
	m.TimesJSON = string(b)
	return nil
}

// AfterFind restores the intake slots
func (m *Medicine) AfterFind(tx *gorm.DB) error {
	if m.TimesJSON == "" {
		m.Times = []string{}
		return nil
	}
	return json.Unmarshal([]byte(m.TimesJSON), &m.Times)
}

// BeforeCreate hook for ReminderEvent
func (r *ReminderEvent) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateID("rem")
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	return nil
}

// BeforeCreate hook for ActivityLog
func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateID("log")
	}
	if l.LoggedAt.IsZero() {
		l.LoggedAt = time.Now()
	}
	return nil
}

// BeforeCreate hook for HealthScoreRecord
func (h *HealthScoreRecord) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = generateID("score")
	}
	return nil
}

// BeforeCreate hook for CaregiverAlert
func (a *CaregiverAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = generateID("alert")
	}
	if a.SentAt.IsZero() {
		a.SentAt = time.Now()
	}
	return nil
}

// BeforeCreate hook for HydrationLog
func (h *HydrationLog) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = generateID("hyd")
	}
	if h.Glasses == 0 {
		h.Glasses = 1
	}
	if h.LoggedAt.IsZero() {
		h.LoggedAt = time.Now()
	}
	return nil
}

// BeforeCreate hook for PrescriptionRecord
func (p *PrescriptionRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateID("rx")
	}
	if p.ParsedAt.IsZero() {
		p.ParsedAt = time.Now()
	}
	return nil
}

// generateID creates a unique prefixed ID
func generateID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// ToJSON converts struct to JSON bytes
func ToJSON(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// FromJSON parses JSON bytes into struct
func FromJSON(data json.RawMessage, v interface{}) error {
	return json.Unmarshal(data, v)
}
