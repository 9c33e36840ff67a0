package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"HemoWatch/internal/domain/models"
	"HemoWatch/internal/services/drift"
)

// memStore is an in-memory Storage + SeriesStore used by monitor tests.
type memStore struct {
	mu      sync.Mutex
	samples []models.Sample
}

func (m *memStore) Init(ctx context.Context) error { return nil }

func (m *memStore) Store(ctx context.Context, s *models.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, *s)
	return nil
}

func (m *memStore) StoreBatch(ctx context.Context, samples []*models.Sample) error {
	for _, s := range samples {
		if err := m.Store(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) Query(ctx context.Context, patientID string, from, to time.Time, limit int) ([]*models.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Sample, 0)
	for i := range m.samples {
		if m.samples[i].PatientID == patientID {
			s := m.samples[i]
			out = append(out, &s)
		}
	}
	return out, nil
}

func (m *memStore) Health(ctx context.Context) error { return nil }
func (m *memStore) Close() error                     { return nil }

func (m *memStore) accepted(patientID string) []models.Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Sample, 0)
	for _, s := range m.samples {
		if s.PatientID == patientID && s.Accepted {
			out = append(out, s)
		}
	}
	return out
}

func (m *memStore) GetSeries(ctx context.Context, patientID string, from, to time.Time, limit int) ([]models.Sample, error) {
	acc := m.accepted(patientID)
	if len(acc) > limit {
		acc = acc[:limit]
	}
	return acc, nil
}

func (m *memStore) GetLatestN(ctx context.Context, patientID string, n int) ([]models.Sample, error) {
	acc := m.accepted(patientID)
	if len(acc) > n {
		acc = acc[len(acc)-n:]
	}
	return acc, nil
}

type memStateStore struct {
	mu sync.Mutex
	m  map[string]drift.State
}

func newMemStateStore() *memStateStore { return &memStateStore{m: make(map[string]drift.State)} }

func (s *memStateStore) Load(ctx context.Context, patientID string) (drift.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.m[patientID]
	return st, ok, nil
}

func (s *memStateStore) Save(ctx context.Context, patientID string, st drift.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[patientID] = st
	return nil
}

func (s *memStateStore) Reset(ctx context.Context, patientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, patientID)
	return nil
}

type memAlarms struct {
	mu     sync.Mutex
	alarms []models.DriftAlarm
}

func (a *memAlarms) PublishAlarm(ctx context.Context, al models.DriftAlarm) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alarms = append(a.alarms, al)
	return nil
}

func (a *memAlarms) Close() error { return nil }

type countMetrics struct {
	mu       sync.Mutex
	routed   int
	rejected int
	alarms   int
	errors   int
}

func (m *countMetrics) RecordSampleRouted(backend, patientID string) {
	m.mu.Lock()
	m.routed++
	m.mu.Unlock()
}
func (m *countMetrics) RecordRejected(patientID string) {
	m.mu.Lock()
	m.rejected++
	m.mu.Unlock()
}
func (m *countMetrics) RecordAlarm(patientID, direction string) {
	m.mu.Lock()
	m.alarms++
	m.mu.Unlock()
}
func (m *countMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}
func (m *countMetrics) RecordLastValue(patientID string, value float64) {}
func (m *countMetrics) RecordLatency(op string, seconds float64)        {}

func newTestMonitor(store *memStore, states *memStateStore, alarms *memAlarms, met *countMetrics, cfg MonitorConfig) *MonitorUseCase {
	proc := NewSampleProcessor(nil, store, met, "clickhouse", 100, time.Second)
	return NewMonitorUseCase(store, states, alarms, proc, met, cfg, nil)
}

func constWaveform(pressure float64, n int) []models.WaveformPoint {
	wf := make([]models.WaveformPoint, n)
	for i := range wf {
		wf[i] = models.WaveformPoint{Pressure: pressure, Time: float64(i) * 0.5}
	}
	return wf
}

func TestIngestSessionAccepted(t *testing.T) {
	store := &memStore{}
	states := newMemStateStore()
	alarms := &memAlarms{}
	met := &countMetrics{}
	uc := newTestMonitor(store, states, alarms, met, MonitorConfig{})

	sess := &models.Session{
		PatientID: "p-001",
		Timestamp: time.Now().Unix(),
		Waveform:  constWaveform(18.0, 4),
	}
	res, err := uc.IngestSession(context.Background(), sess)
	if err != nil {
		t.Fatalf("IngestSession: %v", err)
	}
	if res.Representative == nil || *res.Representative != 18.0 {
		t.Fatalf("representative = %v, want 18.0", res.Representative)
	}
	if !res.Accepted {
		t.Fatalf("first session should be accepted (screen skipped)")
	}
	if res.Screen != nil {
		t.Fatalf("screen should be skipped with empty history")
	}
	if res.Alarmed {
		t.Fatalf("no alarm expected during warmup")
	}
	st, ok, _ := states.Load(context.Background(), "p-001")
	if !ok || st.N != 1 {
		t.Fatalf("state n = %d (ok=%v), want 1", st.N, ok)
	}
	if got := len(store.accepted("p-001")); got != 1 {
		t.Fatalf("stored accepted samples = %d, want 1", got)
	}
}

func TestIngestSessionRejectedOutlier(t *testing.T) {
	store := &memStore{}
	states := newMemStateStore()
	alarms := &memAlarms{}
	met := &countMetrics{}
	uc := newTestMonitor(store, states, alarms, met, MonitorConfig{})

	// Seed a flat history well above the minimum baseline.
	for i := 0; i < 6; i++ {
		store.samples = append(store.samples, models.Sample{
			PatientID: "p-002", Timestamp: int64(1000 + i), Value: 10.0, Accepted: true,
		})
	}

	sess := &models.Session{
		PatientID: "p-002",
		Timestamp: time.Now().Unix(),
		Waveform:  constWaveform(50.0, 3),
	}
	res, err := uc.IngestSession(context.Background(), sess)
	if err != nil {
		t.Fatalf("IngestSession: %v", err)
	}
	if res.Accepted {
		t.Fatalf("candidate 50 against flat baseline of 10 should be rejected")
	}
	if res.Screen == nil || !res.Screen.Outlier {
		t.Fatalf("screen result = %+v, want outlier", res.Screen)
	}
	if res.Screen.PValue != 0 {
		t.Fatalf("p-value = %v, want 0 for degenerate baseline mismatch", res.Screen.PValue)
	}
	if met.rejected != 1 {
		t.Fatalf("rejected count = %d, want 1", met.rejected)
	}
	// Rejected samples never advance the detector.
	if _, ok, _ := states.Load(context.Background(), "p-002"); ok {
		t.Fatalf("detector state should not exist after a rejected sample")
	}
	// The rejection is still stored for audit.
	all, _ := store.Query(context.Background(), "p-002", time.Time{}, time.Now(), 100)
	var rejectedStored bool
	for _, s := range all {
		if !s.Accepted && s.Value == 50.0 {
			rejectedStored = true
		}
	}
	if !rejectedStored {
		t.Fatalf("rejected sample should be persisted with accepted=false")
	}
}

func TestIngestSessionAlarm(t *testing.T) {
	store := &memStore{}
	states := newMemStateStore()
	alarms := &memAlarms{}
	met := &countMetrics{}
	uc := newTestMonitor(store, states, alarms, met, MonitorConfig{
		Drift:       drift.Config{Warmup: 1, H: 2},
		MinBaseline: 1000, // screen always skipped
	})

	ingest := func(v float64) *models.SessionResult {
		t.Helper()
		res, err := uc.IngestSession(context.Background(), &models.Session{
			PatientID: "p-003",
			Timestamp: time.Now().Unix(),
			Waveform:  constWaveform(v, 2),
		})
		if err != nil {
			t.Fatalf("IngestSession(%v): %v", v, err)
		}
		return res
	}

	if res := ingest(5.0); res.Alarmed {
		t.Fatalf("first sample must not alarm")
	}
	res := ingest(6.0)
	if !res.Alarmed {
		t.Fatalf("jump from 5 to 6 with h=2 should alarm")
	}
	if res.Alarm == nil || res.Alarm.Direction != "up" {
		t.Fatalf("alarm = %+v, want direction up", res.Alarm)
	}
	if met.alarms != 1 {
		t.Fatalf("alarm metric = %d, want 1", met.alarms)
	}
	alarms.mu.Lock()
	published := len(alarms.alarms)
	alarms.mu.Unlock()
	if published != 1 {
		t.Fatalf("published alarms = %d, want 1", published)
	}
}

func TestIngestSessionNoRepresentative(t *testing.T) {
	store := &memStore{}
	states := newMemStateStore()
	uc := newTestMonitor(store, states, &memAlarms{}, &countMetrics{}, MonitorConfig{})

	res, err := uc.IngestSession(context.Background(), &models.Session{
		PatientID: "p-004",
		Timestamp: time.Now().Unix(),
		Waveform:  nil,
	})
	if err != nil {
		t.Fatalf("IngestSession: %v", err)
	}
	if res.Representative != nil {
		t.Fatalf("empty waveform must yield nil representative")
	}
	if res.Accepted {
		t.Fatalf("session without representative yields no sample")
	}
	if len(store.samples) != 0 {
		t.Fatalf("nothing should be stored, got %d samples", len(store.samples))
	}
	if _, ok, _ := states.Load(context.Background(), "p-004"); ok {
		t.Fatalf("detector state should not exist")
	}
}

func TestResetDetector(t *testing.T) {
	store := &memStore{}
	states := newMemStateStore()
	uc := newTestMonitor(store, states, &memAlarms{}, &countMetrics{}, MonitorConfig{})

	_, err := uc.IngestSession(context.Background(), &models.Session{
		PatientID: "p-005",
		Timestamp: time.Now().Unix(),
		Waveform:  constWaveform(12.0, 2),
	})
	if err != nil {
		t.Fatalf("IngestSession: %v", err)
	}
	if _, ok, _ := uc.DetectorState(context.Background(), "p-005"); !ok {
		t.Fatalf("state expected after ingest")
	}
	if err := uc.ResetDetector(context.Background(), "p-005"); err != nil {
		t.Fatalf("ResetDetector: %v", err)
	}
	if _, ok, _ := uc.DetectorState(context.Background(), "p-005"); ok {
		t.Fatalf("state should be cleared after reset")
	}
}
