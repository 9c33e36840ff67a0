package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"HemoWatch/internal/domain/models"
	domrepo "HemoWatch/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, s *models.Session) error
}

// RealtimePipeline is a middleware between the gateway stream and the monitor.
// It validates, filters/throttles, optionally transforms, and buffers when downstream is unavailable.
type RealtimePipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.Session
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-patient last accepted time
	// simple format transform hook (optional)
	transform func(*models.Session) *models.Session
	// metrics
	bufDepthGauge func(int)
	throttleWarn  func(string)
}

type PipelineOption func(*RealtimePipeline)

// WithMaxRPS sets the max sessions per second per patient.
func WithMaxRPS(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *RealtimePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewRealtimePipeline creates a new pipeline.
func NewRealtimePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *RealtimePipeline {
	p := &RealtimePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   5,    // default throttle per patient
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.Session, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.Session, p.bufSize)
	}
	// metrics hooks using domain metrics if available
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	p.throttleWarn = func(patient string) { p.metrics.RecordError("pipeline_throttle_" + patient) }
	return p
}

// Start launches background flushing of buffered sessions.
func (p *RealtimePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case s := <-p.bufCh:
				if s == nil {
					continue
				}
				if err := p.proc.Process(ctx, s); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- s:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *RealtimePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a session downstream, buffering on errors.
func (p *RealtimePipeline) Process(ctx context.Context, s *models.Session) error {
	start := time.Now()
	if err := validateSession(s); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		s = p.transform(s)
		if err := validateSession(s); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(s.PatientID, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		if p.throttleWarn != nil {
			p.throttleWarn(s.PatientID)
		}
		return nil
	}

	if err := p.proc.Process(ctx, s); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- s:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

// WithTransform sets a transformation hook to modify session format.
func WithTransform(fn func(*models.Session) *models.Session) PipelineOption {
	return func(p *RealtimePipeline) { p.transform = fn }
}

func validateSession(s *models.Session) error {
	if s == nil {
		return fmt.Errorf("session nil")
	}
	if s.PatientID == "" {
		return fmt.Errorf("patient id empty")
	}
	if s.Timestamp <= 0 {
		return fmt.Errorf("timestamp invalid")
	}
	for _, pt := range s.Waveform {
		if math.IsNaN(pt.Pressure) || math.IsInf(pt.Pressure, 0) {
			return fmt.Errorf("non-finite pressure")
		}
		if math.IsNaN(pt.Time) || math.IsInf(pt.Time, 0) {
			return fmt.Errorf("non-finite time")
		}
	}
	return nil
}

func (p *RealtimePipeline) allow(patientID string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	// simple throttle: ensure at most maxRPS per second
	last := p.lastSeen[patientID]
	if last.IsZero() {
		p.lastSeen[patientID] = now
		return true
	}
	// compute elapsed sessions per second window
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[patientID] = now
	return true
}
