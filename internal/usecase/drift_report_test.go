package usecase

import (
	"context"
	"testing"
	"time"

	"HemoWatch/internal/domain/models"
	svccache "HemoWatch/internal/service/cache"
	"HemoWatch/internal/services/drift"
)

func stepSeries(patientID string) []models.Sample {
	out := make([]models.Sample, 0, 400)
	for i := 0; i < 200; i++ {
		out = append(out, models.Sample{PatientID: patientID, Timestamp: int64(1000 + i), Value: 5.0, Accepted: true})
	}
	for i := 0; i < 200; i++ {
		out = append(out, models.Sample{PatientID: patientID, Timestamp: int64(1200 + i), Value: 5.5, Accepted: true})
	}
	return out
}

func TestDriftReportSustainedStep(t *testing.T) {
	store := &memStore{samples: stepSeries("p-010")}
	uc := NewDriftReportUseCase(store, svccache.NewTTLCache(), drift.Config{Warmup: 100}, time.Minute, nil)

	rep, err := uc.GetReport(context.Background(), GetDriftParams{PatientID: "p-010", N: 400})
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if rep.Count != 400 {
		t.Fatalf("count = %d, want 400", rep.Count)
	}
	if len(rep.Mu) != 400 || len(rep.Sigma) != 400 || len(rep.SPlus) != 400 || len(rep.SMinus) != 400 {
		t.Fatalf("trajectory lengths = %d/%d/%d/%d, want 400 each",
			len(rep.Mu), len(rep.Sigma), len(rep.SPlus), len(rep.SMinus))
	}
	if len(rep.Alarms) == 0 {
		t.Fatalf("sustained step should raise at least one alarm")
	}
	for _, idx := range rep.Alarms {
		if idx < 200 {
			t.Fatalf("alarm at %d precedes the step change", idx)
		}
	}
	if len(rep.Events) != len(rep.Alarms) {
		t.Fatalf("events = %d, alarms = %d, want equal", len(rep.Events), len(rep.Alarms))
	}
	if rep.Events[0].Direction != "up" {
		t.Fatalf("first alarm direction = %q, want up", rep.Events[0].Direction)
	}
}

func TestDriftReportCached(t *testing.T) {
	store := &memStore{samples: stepSeries("p-011")}
	uc := NewDriftReportUseCase(store, svccache.NewTTLCache(), drift.Config{Warmup: 100}, time.Minute, nil)

	first, err := uc.GetReport(context.Background(), GetDriftParams{PatientID: "p-011", N: 400})
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}

	// Mutate the underlying series; a cached report must not see it.
	store.mu.Lock()
	store.samples = store.samples[:100]
	store.mu.Unlock()

	second, err := uc.GetReport(context.Background(), GetDriftParams{PatientID: "p-011", N: 400})
	if err != nil {
		t.Fatalf("GetReport (cached): %v", err)
	}
	if second.Count != first.Count {
		t.Fatalf("cached count = %d, want %d", second.Count, first.Count)
	}
}

func TestDriftReportEmptySeries(t *testing.T) {
	store := &memStore{}
	uc := NewDriftReportUseCase(store, svccache.NewTTLCache(), drift.Config{}, time.Minute, nil)

	rep, err := uc.GetReport(context.Background(), GetDriftParams{PatientID: "p-012"})
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if rep.Count != 0 || len(rep.Alarms) != 0 {
		t.Fatalf("empty series: count=%d alarms=%d, want zeros", rep.Count, len(rep.Alarms))
	}
}

func TestDriftReportRequiresPatient(t *testing.T) {
	uc := NewDriftReportUseCase(&memStore{}, nil, drift.Config{}, time.Minute, nil)
	if _, err := uc.GetReport(context.Background(), GetDriftParams{}); err == nil {
		t.Fatalf("expected error for missing patient")
	}
}
