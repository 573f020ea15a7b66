// Package schedule turns a user profile, rule catalog and medicine list
// into a personalized daily reminder plan.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nexushealth/carepulse/internal/config"
	"github.com/nexushealth/carepulse/internal/i18n"
	"github.com/nexushealth/carepulse/internal/metrics"
	"github.com/nexushealth/carepulse/internal/rules"
	"github.com/nexushealth/carepulse/internal/store"
)

// Store is the persistence surface the synthesizer needs.
type Store interface {
	GetProfile(userID string) (*store.UserProfile, error)
	ActiveMedicines(userID string) ([]store.Medicine, error)
	ReplaceReminders(userID string, events []store.ReminderEvent) error
}

// Synthesizer builds daily reminder plans.
type Synthesizer struct {
	store    Store
	catalog  *rules.Catalog
	messages *i18n.Bundle
	cfg      config.ScheduleConfig
	logger   *zap.Logger
}

func NewSynthesizer(s Store, catalog *rules.Catalog, messages *i18n.Bundle, cfg config.ScheduleConfig, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		store:    s,
		catalog:  catalog,
		messages: messages,
		cfg:      cfg,
		logger:   logger,
	}
}

// Synthesize builds a fresh plan for the user and swaps it in as the active
// reminder set. An unknown user yields an empty plan, not an error.
func (s *Synthesizer) Synthesize(userID string) ([]store.ReminderEvent, error) {
	plan, err := s.Generate(userID)
	if err != nil {
		return nil, err
	}
	if len(plan) == 0 {
		return plan, nil
	}

	if err := s.store.ReplaceReminders(userID, plan); err != nil {
		return nil, fmt.Errorf("failed to persist schedule: %w", err)
	}

	metrics.RecordSchedule(len(plan))
	s.logger.Info("schedule generated",
		zap.String("user_id", userID),
		zap.Int("reminders", len(plan)))

	return plan, nil
}

// Generate builds the plan without persisting it.
func (s *Synthesizer) Generate(userID string) ([]store.ReminderEvent, error) {
	profile, err := s.store.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return []store.ReminderEvent{}, nil
	}

	medicines, err := s.store.ActiveMedicines(userID)
	if err != nil {
		return nil, err
	}

	lang := profile.Language
	if lang == "" {
		lang = s.cfg.DefaultLanguage
	}
	age := profile.Age
	if age == 0 {
		age = s.cfg.DefaultAge
	}
	wake := profile.WakeTime
	if wake == "" {
		wake = s.cfg.DefaultWakeTime
	}
	sleep := profile.SleepTime
	if sleep == "" {
		sleep = s.cfg.DefaultSleepTime
	}

	rs := s.catalog.Resolve(profile.Condition)
	hydrationTarget := s.catalog.AgeProfile(age).HydrationGlasses

	var plan []store.ReminderEvent

	plan = append(plan, store.ReminderEvent{
		UserID:    userID,
		Kind:      store.KindWake,
		Title:     "Good Morning! 🌅",
		Body:      s.messages.Message(lang, i18n.KindWake, nil),
		Scheduled: wake,
		Priority:  store.PriorityHigh,
	})

	for _, med := range medicines {
		times := med.Times
		if len(times) == 0 {
			times = []string{"08:00"}
		}
		dosage := med.Dosage
		if dosage == "" {
			dosage = "1 tablet"
		}
		for _, t := range times {
			plan = append(plan, store.ReminderEvent{
				UserID: userID,
				Kind:   store.KindMedicine,
				Title:  "💊 Medicine: " + med.Name,
				Body: s.messages.Message(lang, i18n.KindMedicine, map[string]string{
					"name":   med.Name,
					"dosage": dosage,
				}),
				Scheduled: t,
				Priority:  store.PriorityHigh,
			})
		}
	}

	breakfast := "Healthy breakfast"
	if len(rs.Diet) > 0 {
		breakfast = rs.Diet[0]
	}
	plan = append(plan, store.ReminderEvent{
		UserID: userID,
		Kind:   store.KindMeal,
		Title:  "🥗 Breakfast Time",
		Body: s.messages.Message(lang, i18n.KindMeal, map[string]string{
			"meal": "Breakfast - " + breakfast,
		}),
		Scheduled: addHours(wake, 1),
		Priority:  store.PriorityHigh,
	})

	// Every 2 hours from 8am to 8pm, capped by the age-group target.
	hydrationSlots := []string{"08:00", "10:00", "12:00", "14:00", "16:00", "18:00", "20:00"}
	if hydrationTarget < len(hydrationSlots) {
		hydrationSlots = hydrationSlots[:hydrationTarget]
	}
	for _, slot := range hydrationSlots {
		plan = append(plan, store.ReminderEvent{
			UserID:    userID,
			Kind:      store.KindWater,
			Title:     "💧 Hydration Check",
			Body:      s.messages.Message(lang, i18n.KindWater, nil),
			Scheduled: slot,
			Priority:  "LOW",
		})
	}

	morningActivity := "30-min walk"
	if len(rs.Exercise) > 0 {
		morningActivity = rs.Exercise[0]
	}
	plan = append(plan, store.ReminderEvent{
		UserID: userID,
		Kind:   store.KindExercise,
		Title:  "🏃 Exercise Time",
		Body: s.messages.Message(lang, i18n.KindExercise, map[string]string{
			"activity": morningActivity,
		}),
		Scheduled: addHours(wake, 2),
		Priority:  store.PriorityMedium,
	})

	lunch := "Balanced lunch"
	if len(rs.Diet) > 1 {
		lunch = rs.Diet[1]
	}
	plan = append(plan, store.ReminderEvent{
		UserID: userID,
		Kind:   store.KindMeal,
		Title:  "🍱 Lunch Time",
		Body: s.messages.Message(lang, i18n.KindMeal, map[string]string{
			"meal": "Lunch - " + lunch,
		}),
		Scheduled: "13:00",
		Priority:  store.PriorityMedium,
	})

	eveningActivity := "Evening walk"
	if len(rs.Exercise) > 0 {
		eveningActivity = rs.Exercise[len(rs.Exercise)-1]
	}
	plan = append(plan, store.ReminderEvent{
		UserID: userID,
		Kind:   store.KindExercise,
		Title:  "🧘 Evening Activity",
		Body: s.messages.Message(lang, i18n.KindExercise, map[string]string{
			"activity": eveningActivity,
		}),
		Scheduled: "17:00",
		Priority:  store.PriorityMedium,
	})

	plan = append(plan, store.ReminderEvent{
		UserID: userID,
		Kind:   store.KindMeal,
		Title:  "🍽️ Dinner Time",
		Body: s.messages.Message(lang, i18n.KindMeal, map[string]string{
			"meal": "Dinner - Light & healthy meal",
		}),
		Scheduled: "19:30",
		Priority:  store.PriorityMedium,
	})

	tips := rs.Alerts
	if len(tips) > s.cfg.MaxHealthTips {
		tips = tips[:s.cfg.MaxHealthTips]
	}
	for i, tip := range tips {
		plan = append(plan, store.ReminderEvent{
			UserID:    userID,
			Kind:      store.KindHealthTip,
			Title:     "💡 Health Tip",
			Body:      tip,
			Scheduled: fmt.Sprintf("%02d:00", 9+i*4),
			Priority:  "LOW",
		})
	}

	plan = append(plan, store.ReminderEvent{
		UserID:    userID,
		Kind:      store.KindSleep,
		Title:     "🌙 Sleep Reminder",
		Body:      s.messages.Message(lang, i18n.KindSleep, nil),
		Scheduled: sleepPrepTime(sleep),
		Priority:  store.PriorityMedium,
	})

	return dedupe(plan), nil
}

// sleepPrepTime moves the sleep reminder 30 minutes earlier within the same
// hour; a minute underflow clamps to :00 instead of borrowing from the hour.
func sleepPrepTime(sleep string) string {
	h, m, err := splitHHMM(sleep)
	if err != nil {
		return sleep
	}
	m -= 30
	if m < 0 {
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

func addHours(t string, hours int) string {
	h, m, err := splitHHMM(t)
	if err != nil {
		return t
	}
	return fmt.Sprintf("%02d:%02d", (h+hours)%24, m)
}

func splitHHMM(t string) (int, int, error) {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed time %q", t)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return h, m, nil
}

// dedupe sorts by time of day and keeps the first event per (time, kind).
func dedupe(plan []store.ReminderEvent) []store.ReminderEvent {
	sort.SliceStable(plan, func(i, j int) bool {
		return plan[i].Scheduled < plan[j].Scheduled
	})

	type slotKey struct {
		scheduled string
		kind      string
	}
	seen := make(map[slotKey]bool)
	unique := plan[:0]
	for _, event := range plan {
		key := slotKey{event.Scheduled, event.Kind}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, event)
	}
	return unique
}
