package middleware

import (
	"context"
	"math"
	"sync"
	"testing"

	"HemoWatch/internal/domain/models"
)

type countProc struct {
	mu sync.Mutex
	n  int
}

func (p *countProc) Process(ctx context.Context, s *models.Session) error {
	p.mu.Lock()
	p.n++
	p.mu.Unlock()
	return nil
}

func (p *countProc) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.n
}

type nopMetrics struct{}

func (nopMetrics) RecordSampleRouted(backend, patientID string)  {}
func (nopMetrics) RecordRejected(patientID string)               {}
func (nopMetrics) RecordAlarm(patientID, direction string)       {}
func (nopMetrics) RecordError(kind string)                       {}
func (nopMetrics) RecordLastValue(patientID string, value float64) {}
func (nopMetrics) RecordLatency(op string, seconds float64)        {}

func validTestSession() *models.Session {
	return &models.Session{
		PatientID: "p-100",
		Timestamp: 1700000000,
		Waveform:  []models.WaveformPoint{{Pressure: 20.0, Time: 0}},
	}
}

func TestPipelineRejectsInvalidSessions(t *testing.T) {
	proc := &countProc{}
	p := NewRealtimePipeline(proc, nopMetrics{})

	cases := []*models.Session{
		nil,
		{PatientID: "", Timestamp: 1, Waveform: nil},
		{PatientID: "p-1", Timestamp: 0, Waveform: nil},
		{PatientID: "p-1", Timestamp: 1, Waveform: []models.WaveformPoint{{Pressure: math.NaN(), Time: 0}}},
		{PatientID: "p-1", Timestamp: 1, Waveform: []models.WaveformPoint{{Pressure: 20, Time: math.Inf(1)}}},
	}
	for i, s := range cases {
		if err := p.Process(context.Background(), s); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if proc.count() != 0 {
		t.Fatalf("downstream called %d times, want 0", proc.count())
	}
}

func TestPipelineForwardsValidSession(t *testing.T) {
	proc := &countProc{}
	p := NewRealtimePipeline(proc, nopMetrics{})

	if err := p.Process(context.Background(), validTestSession()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("downstream called %d times, want 1", proc.count())
	}
}

func TestPipelineThrottlesPerPatient(t *testing.T) {
	proc := &countProc{}
	p := NewRealtimePipeline(proc, nopMetrics{}, WithMaxRPS(1))

	// Two back-to-back sessions for the same patient: the second is dropped
	// silently (throttling is not an error).
	if err := p.Process(context.Background(), validTestSession()); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := p.Process(context.Background(), validTestSession()); err != nil {
		t.Fatalf("second: %v", err)
	}
	if proc.count() != 1 {
		t.Fatalf("downstream called %d times, want 1 (second throttled)", proc.count())
	}

	// A different patient is not affected by the first patient's window.
	other := validTestSession()
	other.PatientID = "p-200"
	if err := p.Process(context.Background(), other); err != nil {
		t.Fatalf("other patient: %v", err)
	}
	if proc.count() != 2 {
		t.Fatalf("downstream called %d times, want 2", proc.count())
	}
}
