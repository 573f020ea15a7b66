package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Metrics struct {
	startTime time.Time

	schedulesGenerated atomic.Int64
	remindersEmitted   atomic.Int64

	scoresComputed    atomic.Int64
	suggestionsIssued atomic.Int64
	alertsRaised      atomic.Int64

	prescriptionsParsed atomic.Int64
	medicinesExtracted  atomic.Int64

	activitiesLogged atomic.Int64
	hydrationLogged  atomic.Int64

	kindCounts map[string]*atomic.Int64
	kindLock   sync.Mutex
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

func New() *Metrics {
	return &Metrics{
		startTime:  time.Now(),
		kindCounts: make(map[string]*atomic.Int64),
	}
}

func (m *Metrics) RecordSchedule(reminders int) {
	m.schedulesGenerated.Add(1)
	m.remindersEmitted.Add(int64(reminders))
}

func (m *Metrics) RecordScore() {
	m.scoresComputed.Add(1)
}

func (m *Metrics) RecordSuggestions(count int) {
	m.suggestionsIssued.Add(int64(count))
}

func (m *Metrics) RecordAlert() {
	m.alertsRaised.Add(1)
}

func (m *Metrics) RecordPrescription(medicines int) {
	m.prescriptionsParsed.Add(1)
	m.medicinesExtracted.Add(int64(medicines))
}

func (m *Metrics) RecordActivity(kind string) {
	m.activitiesLogged.Add(1)

	m.kindLock.Lock()
	defer m.kindLock.Unlock()
	if m.kindCounts[kind] == nil {
		m.kindCounts[kind] = &atomic.Int64{}
	}
	m.kindCounts[kind].Add(1)
}

func (m *Metrics) RecordHydration() {
	m.hydrationLogged.Add(1)
}

type Snapshot struct {
	Uptime              time.Duration    `json:"uptime"`
	SchedulesGenerated  int64            `json:"schedules_generated"`
	RemindersEmitted    int64            `json:"reminders_emitted"`
	ScoresComputed      int64            `json:"scores_computed"`
	SuggestionsIssued   int64            `json:"suggestions_issued"`
	AlertsRaised        int64            `json:"alerts_raised"`
	PrescriptionsParsed int64            `json:"prescriptions_parsed"`
	MedicinesExtracted  int64            `json:"medicines_extracted"`
	ActivitiesLogged    int64            `json:"activities_logged"`
	HydrationLogged     int64            `json:"hydration_logged"`
	ActivityByKind      map[string]int64 `json:"activity_by_kind"`
}

func (m *Metrics) Snapshot() *Snapshot {
	s := &Snapshot{
		Uptime:              time.Since(m.startTime),
		SchedulesGenerated:  m.schedulesGenerated.Load(),
		RemindersEmitted:    m.remindersEmitted.Load(),
		ScoresComputed:      m.scoresComputed.Load(),
		SuggestionsIssued:   m.suggestionsIssued.Load(),
		AlertsRaised:        m.alertsRaised.Load(),
		PrescriptionsParsed: m.prescriptionsParsed.Load(),
		MedicinesExtracted:  m.medicinesExtracted.Load(),
		ActivitiesLogged:    m.activitiesLogged.Load(),
		HydrationLogged:     m.hydrationLogged.Load(),
		ActivityByKind:      make(map[string]int64),
	}

	m.kindLock.Lock()
	for k, v := range m.kindCounts {
		s.ActivityByKind[k] = v.Load()
	}
	m.kindLock.Unlock()

	return s
}

func RecordSchedule(reminders int) {
	Default().RecordSchedule(reminders)
}

func RecordScore() {
	Default().RecordScore()
}

func RecordSuggestions(count int) {
	Default().RecordSuggestions(count)
}

func RecordAlert() {
	Default().RecordAlert()
}

func RecordPrescription(medicines int) {
	Default().RecordPrescription(medicines)
}

func RecordActivity(kind string) {
	Default().RecordActivity(kind)
}

func RecordHydration() {
	Default().RecordHydration()
}
