package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"HemoWatch/internal/domain/models"
	domrepo "HemoWatch/internal/domain/repository"
	svccache "HemoWatch/internal/service/cache"
	"HemoWatch/internal/services/drift"
	applogger "HemoWatch/pkg/logger"
)

// DriftReportUseCase replays a patient's stored series through a fresh
// detector and returns the full trajectories. Reports are cached briefly so
// repeated dashboard polls do not replay the same series.
type DriftReportUseCase struct {
	store   domrepo.SeriesStore
	cache   svccache.BytesCache
	cfg     drift.Config
	ttl     time.Duration
	timeout time.Duration
	l       *applogger.Logger
}

func NewDriftReportUseCase(store domrepo.SeriesStore, cache svccache.BytesCache, cfg drift.Config, ttl time.Duration, l *applogger.Logger) *DriftReportUseCase {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DriftReportUseCase{
		store:   store,
		cache:   cache,
		cfg:     cfg,
		ttl:     ttl,
		timeout: 10 * time.Second,
		l:       l,
	}
}

type GetDriftParams struct {
	PatientID string
	N         int
}

func (uc *DriftReportUseCase) GetReport(ctx context.Context, p GetDriftParams) (*models.DriftReport, error) {
	if p.PatientID == "" {
		return nil, fmt.Errorf("patient required")
	}
	if p.N <= 0 {
		p.N = 1000
	}
	if p.N > 50000 {
		p.N = 50000
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	key := fmt.Sprintf("drift:report:%s:%d", p.PatientID, p.N)
	if uc.cache != nil {
		if b, ok, err := uc.cache.GetBytes(key); err == nil && ok {
			var cached models.DriftReport
			if err := json.Unmarshal(b, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	samples, err := uc.store.GetLatestN(ctx, p.PatientID, p.N)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	xs := make([]float64, len(samples))
	for i, sm := range samples {
		xs[i] = sm.Value
	}

	res, err := drift.Process(xs, uc.cfg)
	if err != nil {
		return nil, fmt.Errorf("drift replay: %w", err)
	}

	report := &models.DriftReport{
		PatientID: p.PatientID,
		Timestamp: time.Now(),
		Count:     len(xs),
		Alarms:    res.Alarms,
		Mu:        res.Mu,
		Sigma:     res.Sigma,
		SPlus:     res.SPlus,
		SMinus:    res.SMinus,
	}
	for i, idx := range res.Alarms {
		report.Events = append(report.Events, models.DriftAlarm{
			PatientID: p.PatientID,
			Timestamp: time.Unix(samples[idx].Timestamp, 0),
			Index:     idx,
			Direction: res.Directions[i],
			Mu:        res.Mu[idx],
			Sigma:     res.Sigma[idx],
		})
	}

	if uc.cache != nil {
		if b, err := json.Marshal(report); err == nil {
			if err := uc.cache.SetBytes(key, b, uc.ttl); err != nil && uc.l != nil {
				uc.l.Warn("drift report cache write failed",
					applogger.String("patient", p.PatientID),
					applogger.Error(err),
				)
			}
		}
	}
	return report, nil
}
