package usecase

import (
	"context"
	"fmt"
	"time"

	"HemoWatch/internal/domain/models"
	domrepo "HemoWatch/internal/domain/repository"
)

// SeriesUseCase provides business logic for retrieving a patient's
// monitored series.
type SeriesUseCase struct {
	store domrepo.SeriesStore
}

func NewSeriesUseCase(store domrepo.SeriesStore) *SeriesUseCase {
	return &SeriesUseCase{store: store}
}

type GetSeriesParams struct {
	PatientID string
	From      time.Time
	To        time.Time
	Limit     int
}

type GetSeriesResult struct {
	PatientID string
	From      time.Time
	To        time.Time
	Count     int
	Samples   []models.Sample
}

func (uc *SeriesUseCase) GetSeries(ctx context.Context, p GetSeriesParams) (*GetSeriesResult, error) {
	if p.PatientID == "" {
		return nil, fmt.Errorf("patient required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	samples, err := uc.store.GetSeries(ctx, p.PatientID, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	if len(samples) > p.Limit {
		samples = samples[:p.Limit]
	}

	return &GetSeriesResult{
		PatientID: p.PatientID,
		From:      p.From,
		To:        p.To,
		Count:     len(samples),
		Samples:   samples,
	}, nil
}
