package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"HemoWatch/internal/domain/models"
	drepo "HemoWatch/internal/domain/repository"
	"HemoWatch/internal/services/drift"
	"HemoWatch/internal/services/screen"
	"HemoWatch/internal/services/waveform"
	applogger "HemoWatch/pkg/logger"
)

// MonitorConfig tunes the per-session monitoring path.
type MonitorConfig struct {
	Drift          drift.Config
	ScreenAlpha    float64
	BaselineWindow int // accepted samples screened against
	MinBaseline    int // below this the screen is skipped
	Blanking       float64
	Quantize       string
}

// MonitorUseCase runs the full per-session path: reduce the waveform to a
// representative pressure, screen it against the patient's recent baseline,
// advance the drift detector, and route the resulting sample. Rejected
// samples are stored for audit but never reach the detector.
type MonitorUseCase struct {
	series drepo.SeriesStore
	states drepo.StateStore
	alarms drepo.AlarmPublisher
	proc   *SampleProcessor
	met    drepo.Metrics
	cfg    MonitorConfig
	l      *applogger.Logger
}

func NewMonitorUseCase(
	series drepo.SeriesStore,
	states drepo.StateStore,
	alarms drepo.AlarmPublisher,
	proc *SampleProcessor,
	met drepo.Metrics,
	cfg MonitorConfig,
	l *applogger.Logger,
) *MonitorUseCase {
	if cfg.ScreenAlpha <= 0 || cfg.ScreenAlpha >= 1 {
		cfg.ScreenAlpha = screen.DefaultAlpha
	}
	if cfg.BaselineWindow <= 0 {
		cfg.BaselineWindow = 30
	}
	if cfg.MinBaseline < 2 {
		cfg.MinBaseline = 5
	}
	if cfg.Blanking <= 0 {
		cfg.Blanking = waveform.DefaultBlanking
	}
	if cfg.Quantize == "" {
		cfg.Quantize = waveform.ModeRound
	}
	return &MonitorUseCase{
		series: series,
		states: states,
		alarms: alarms,
		proc:   proc,
		met:    met,
		cfg:    cfg,
		l:      l,
	}
}

// Process satisfies the realtime pipeline's downstream interface.
func (uc *MonitorUseCase) Process(ctx context.Context, s *models.Session) error {
	_, err := uc.IngestSession(ctx, s)
	return err
}

// IngestSession runs one transmission through reduce, screen, and drift.
func (uc *MonitorUseCase) IngestSession(ctx context.Context, s *models.Session) (*models.SessionResult, error) {
	if s == nil {
		return nil, fmt.Errorf("session is nil")
	}
	start := time.Now()

	res := &models.SessionResult{
		PatientID: s.PatientID,
		Timestamp: time.Unix(s.Timestamp, 0),
	}

	red, err := waveform.Reduce(s.Waveform, uc.cfg.Blanking, uc.cfg.Quantize)
	if err != nil {
		uc.met.RecordError("reduce")
		return nil, fmt.Errorf("reduce session: %w", err)
	}
	if red.Representative == nil {
		// Nothing quantizable in the waveform; the session yields no sample.
		if uc.l != nil {
			uc.l.Warn("session produced no representative",
				applogger.String("patient", s.PatientID),
				applogger.Int("points", len(s.Waveform)),
			)
		}
		return res, nil
	}
	res.Representative = red.Representative
	value := *red.Representative

	sample := &models.Sample{
		PatientID: s.PatientID,
		Timestamp: s.Timestamp,
		Value:     value,
	}

	accepted, scr, err := uc.screenCandidate(ctx, s.PatientID, value)
	if err != nil {
		uc.met.RecordError("screen")
		return nil, fmt.Errorf("screen sample: %w", err)
	}
	res.Screen = scr
	res.Accepted = accepted
	sample.Accepted = accepted

	if !accepted {
		uc.met.RecordRejected(s.PatientID)
		if uc.l != nil {
			uc.l.Warn("sample rejected by baseline screen",
				applogger.String("patient", s.PatientID),
				applogger.Float64("value", value),
				applogger.Float64("p_value", scr.PValue),
			)
		}
		// Keep the rejection on record, but do not advance the detector.
		if err := uc.proc.Process(ctx, sample); err != nil {
			return nil, err
		}
		return res, nil
	}

	if err := uc.proc.Process(ctx, sample); err != nil {
		return nil, err
	}

	step, seriesLen, err := uc.advanceDetector(ctx, s.PatientID, value)
	if err != nil {
		uc.met.RecordError("drift_step")
		return nil, fmt.Errorf("drift step: %w", err)
	}
	res.SeriesLength = seriesLen

	if step.Alarmed {
		alarm := models.DriftAlarm{
			PatientID: s.PatientID,
			Timestamp: time.Unix(s.Timestamp, 0),
			Index:     step.Index,
			Direction: step.Direction,
			SPlus:     step.TripSPlus,
			SMinus:    step.TripSMinus,
			Mu:        step.Mu,
			Sigma:     step.Sigma,
		}
		res.Alarmed = true
		res.Alarm = &alarm
		uc.met.RecordAlarm(s.PatientID, step.Direction)
		if uc.l != nil {
			uc.l.Warn("drift alarm",
				applogger.String("patient", s.PatientID),
				applogger.String("direction", step.Direction),
				applogger.Int("index", step.Index),
				applogger.Float64("mu", step.Mu),
				applogger.Float64("sigma", step.Sigma),
			)
		}
		if uc.alarms != nil {
			if err := uc.alarms.PublishAlarm(ctx, alarm); err != nil {
				uc.met.RecordError("alarm_publish")
				if uc.l != nil {
					uc.l.Error("alarm publish failed",
						applogger.String("patient", s.PatientID),
						applogger.Error(err),
					)
				}
			}
		}
	}

	uc.met.RecordLatency("ingest_session", time.Since(start).Seconds())
	return res, nil
}

// Screen tests an explicit candidate against an explicit baseline. Used by
// the screen endpoint; the streaming path goes through screenCandidate.
func (uc *MonitorUseCase) Screen(baseline []float64, candidate, alpha float64) (screen.Result, error) {
	return screen.PredictionInterval(baseline, candidate, alpha)
}

// Reduce exposes the waveform reducer for the reduce endpoint.
func (uc *MonitorUseCase) Reduce(points []models.WaveformPoint, blanking float64, mode string) (models.ReducerResult, error) {
	if blanking <= 0 {
		blanking = uc.cfg.Blanking
	}
	if mode == "" {
		mode = uc.cfg.Quantize
	}
	return waveform.Reduce(points, blanking, mode)
}

// DetectorState returns the checkpointed drift state for a patient.
func (uc *MonitorUseCase) DetectorState(ctx context.Context, patientID string) (drift.State, bool, error) {
	return uc.states.Load(ctx, patientID)
}

// ResetDetector clears a patient's drift checkpoint. Used after a
// clinician-confirmed baseline change.
func (uc *MonitorUseCase) ResetDetector(ctx context.Context, patientID string) error {
	return uc.states.Reset(ctx, patientID)
}

func (uc *MonitorUseCase) screenCandidate(ctx context.Context, patientID string, value float64) (bool, *models.ScreenResult, error) {
	ref, err := uc.series.GetLatestN(ctx, patientID, uc.cfg.BaselineWindow)
	if err != nil {
		return false, nil, fmt.Errorf("load baseline: %w", err)
	}
	if len(ref) < uc.cfg.MinBaseline {
		// Too little history to judge; accept and let the series grow.
		return true, nil, nil
	}
	baseline := make([]float64, len(ref))
	for i, sm := range ref {
		baseline[i] = sm.Value
	}
	r, err := screen.PredictionInterval(baseline, value, uc.cfg.ScreenAlpha)
	if err != nil {
		if errors.Is(err, screen.ErrInsufficientBaseline) {
			return true, nil, nil
		}
		return false, nil, err
	}
	scr := &models.ScreenResult{
		PatientID: patientID,
		Timestamp: time.Now(),
		Lower:     r.Lower,
		Upper:     r.Upper,
		PValue:    r.PValue,
		Outlier:   r.Outlier,
		Baseline:  r.N,
	}
	return !r.Outlier, scr, nil
}

func (uc *MonitorUseCase) advanceDetector(ctx context.Context, patientID string, value float64) (drift.StepResult, int, error) {
	st, ok, err := uc.states.Load(ctx, patientID)
	if err != nil {
		return drift.StepResult{}, 0, err
	}
	var d *drift.Detector
	if ok {
		d = drift.Resume(uc.cfg.Drift, st)
	} else {
		d = drift.New(uc.cfg.Drift)
	}
	step, err := d.Step(value)
	if err != nil {
		return drift.StepResult{}, 0, err
	}
	if err := uc.states.Save(ctx, patientID, d.State()); err != nil {
		return drift.StepResult{}, 0, err
	}
	return step, d.State().N, nil
}
