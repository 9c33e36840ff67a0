package drift

import (
	"errors"
	"fmt"
	"math"
)

// ErrNonFinite is returned when a NaN or infinite sample reaches the detector.
// Malformed input is a caller contract violation; state is not advanced.
var ErrNonFinite = errors.New("drift: non-finite sample")

const (
	// varFloor keeps the variance estimate strictly positive so standardization
	// never divides by zero.
	varFloor = 1e-12
	// denomGuard pads sqrt(var) on the degenerate first step.
	denomGuard = 1e-12
	// initialVar seeds the variance estimate before any residual is observed.
	initialVar = 1e-6
)

// Config tunes the EWMA baseline + two-sided CUSUM detector.
// Zero values are replaced by defaults, so Config{} is usable as-is.
type Config struct {
	// AlphaBaseline is the EWMA decay for the baseline level. Smaller tracks
	// slower and stays sensitive to persistent drift.
	AlphaBaseline float64 `yaml:"alpha_baseline" json:"alpha_baseline"`
	// AlphaVar is the EWMA decay for the residual variance estimate.
	AlphaVar float64 `yaml:"alpha_var" json:"alpha_var"`
	// Delta is the target shift size in standardized units; the CUSUM
	// reference value is Delta/2.
	Delta float64 `yaml:"delta" json:"delta"`
	// H is the decision threshold on either accumulator.
	H float64 `yaml:"h" json:"h"`
	// Warmup suppresses alarms for the first Warmup samples while state
	// still accumulates.
	Warmup int `yaml:"warmup" json:"warmup"`
	// ClipZ winsorizes standardized residuals to [-ClipZ, ClipZ]. Zero means
	// the default bound; negative disables clipping.
	ClipZ float64 `yaml:"clip_z" json:"clip_z"`
	// ResetBaseline re-seeds the baseline from the alarming sample after a
	// confirmed drift event. Off by default to match the reference behavior.
	ResetBaseline bool `yaml:"reset_baseline" json:"reset_baseline"`
}

// DefaultConfig returns the reference tuning for subtle pulsatility drift.
func DefaultConfig() Config {
	return Config{
		AlphaBaseline: 0.01,
		AlphaVar:      0.05,
		Delta:         0.25,
		H:             5.0,
		Warmup:        100,
		ClipZ:         6.0,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.AlphaBaseline <= 0 {
		c.AlphaBaseline = def.AlphaBaseline
	}
	if c.AlphaVar <= 0 {
		c.AlphaVar = def.AlphaVar
	}
	if c.Delta <= 0 {
		c.Delta = def.Delta
	}
	if c.H <= 0 {
		c.H = def.H
	}
	if c.Warmup <= 0 {
		c.Warmup = def.Warmup
	}
	if c.ClipZ == 0 {
		c.ClipZ = def.ClipZ
	}
	return c
}

// K returns the CUSUM reference value.
func (c Config) K() float64 { return c.Delta / 2 }

// State is the full detector state between samples: a small fixed-size record
// owned by the caller. It serializes to JSON for checkpointing, and replaying
// the same samples with the same Config reproduces it exactly.
type State struct {
	Mu     float64 `json:"mu"`
	Var    float64 `json:"var"`
	SPlus  float64 `json:"s_plus"`
	SMinus float64 `json:"s_minus"`
	N      int     `json:"n"` // samples consumed
}

// StepResult reports a single update. SPlus/SMinus are the recorded trajectory
// values: on an alarm they show the re-armed zeros, with the crossing values
// preserved in TripSPlus/TripSMinus.
type StepResult struct {
	Index      int
	Mu         float64
	Sigma      float64
	SPlus      float64
	SMinus     float64
	Alarmed    bool
	Direction  string // "up" or "down" when Alarmed
	TripSPlus  float64
	TripSMinus float64
}

// Detector holds one series' state. It is strictly sequential: each update
// depends on the previous state, so a series must be driven by a single owner.
// Independent series get independent Detectors.
type Detector struct {
	cfg Config
	st  State
}

// New creates a detector with empty state.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg.withDefaults()}
}

// Resume restores a detector from a checkpointed state.
func Resume(cfg Config, st State) *Detector {
	return &Detector{cfg: cfg.withDefaults(), st: st}
}

// Config returns the effective configuration after defaulting.
func (d *Detector) Config() Config { return d.cfg }

// State returns a copy of the current state for checkpointing.
func (d *Detector) State() State { return d.st }

// Step consumes one sample and returns the update outcome. The per-sample
// order is fixed: baseline update, residual, variance update and floor,
// standardize, winsorize, accumulate from the previous accumulators, then
// threshold with re-arm.
func (d *Detector) Step(x float64) (StepResult, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return StepResult{}, fmt.Errorf("%w: index %d value %v", ErrNonFinite, d.st.N, x)
	}

	if d.st.N == 0 {
		d.st.Mu = x
		d.st.Var = initialVar
	}

	d.st.Mu = (1-d.cfg.AlphaBaseline)*d.st.Mu + d.cfg.AlphaBaseline*x

	r := x - d.st.Mu
	d.st.Var = (1-d.cfg.AlphaVar)*d.st.Var + d.cfg.AlphaVar*(r*r)
	sigma := math.Sqrt(math.Max(d.st.Var, varFloor))

	z := r / (sigma + denomGuard)
	if d.cfg.ClipZ > 0 {
		z = math.Min(math.Max(z, -d.cfg.ClipZ), d.cfg.ClipZ)
	}

	k := d.cfg.K()
	sPlus := math.Max(0, d.st.SPlus+z-k)
	sMinus := math.Max(0, d.st.SMinus-z-k)
	d.st.SPlus = sPlus
	d.st.SMinus = sMinus

	res := StepResult{
		Index:  d.st.N,
		Mu:     d.st.Mu,
		Sigma:  sigma,
		SPlus:  sPlus,
		SMinus: sMinus,
	}

	if d.st.N >= d.cfg.Warmup && (sPlus > d.cfg.H || sMinus > d.cfg.H) {
		res.Alarmed = true
		res.TripSPlus = sPlus
		res.TripSMinus = sMinus
		if sPlus >= sMinus {
			res.Direction = "up"
		} else {
			res.Direction = "down"
		}
		// re-arm: the recorded trajectory shows the reset, not the peak
		d.st.SPlus = 0
		d.st.SMinus = 0
		res.SPlus = 0
		res.SMinus = 0
		if d.cfg.ResetBaseline {
			d.st.Mu = x
		}
	}

	d.st.N++
	return res, nil
}
