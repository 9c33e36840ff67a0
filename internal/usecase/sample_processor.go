package usecase

import (
	"context"
	"fmt"
	"time"

	"HemoWatch/internal/domain/models"
	drepo "HemoWatch/internal/domain/repository"
)

// SampleProcessor routes reduced samples to the configured backend.
type SampleProcessor struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewSampleProcessor creates a new SampleProcessor instance.
func NewSampleProcessor(
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *SampleProcessor {
	return &SampleProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// Process routes a single sample to the configured backend.
func (p *SampleProcessor) Process(ctx context.Context, sm *models.Sample) error {
	if sm == nil {
		return fmt.Errorf("sample is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, sm)
	case "clickhouse":
		err = p.store.Store(ctx, sm)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process sample: %w", err)
	}

	p.metrics.RecordSampleRouted(p.backend, sm.PatientID)
	if sm.Accepted {
		p.metrics.RecordLastValue(sm.PatientID, sm.Value)
	}
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple samples in a batch.
func (p *SampleProcessor) ProcessBatch(ctx context.Context, samples []*models.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, samples)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, samples)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, sm := range samples {
		p.metrics.RecordSampleRouted(p.backend, sm.PatientID)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *SampleProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
