package drift

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"
)

func noisySeries(n int, level, scale float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = level + scale*rng.NormFloat64()
	}
	return xs
}

func TestProcessEmptyInput(t *testing.T) {
	res, err := Process(nil, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Mu) != 0 || len(res.Sigma) != 0 || len(res.SPlus) != 0 || len(res.SMinus) != 0 {
		t.Fatalf("expected empty trajectories, got %+v", res)
	}
	if len(res.Alarms) != 0 {
		t.Fatalf("expected no alarms, got %v", res.Alarms)
	}
}

func TestProcessSingleSample(t *testing.T) {
	res, err := Process([]float64{1.8}, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Mu) != 1 {
		t.Fatalf("expected one step, got %d", len(res.Mu))
	}
	if len(res.Alarms) != 0 {
		t.Fatalf("single sample must not alarm, got %v", res.Alarms)
	}
	if res.Mu[0] != 1.8 {
		t.Fatalf("baseline must initialize from first sample, got %v", res.Mu[0])
	}
}

func TestProcessDeterminism(t *testing.T) {
	xs := noisySeries(500, 2.0, 0.1, 7)
	a, err := Process(xs, Config{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := Process(xs, Config{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	for i := range xs {
		if a.Mu[i] != b.Mu[i] || a.Sigma[i] != b.Sigma[i] ||
			a.SPlus[i] != b.SPlus[i] || a.SMinus[i] != b.SMinus[i] {
			t.Fatalf("trajectories diverge at %d", i)
		}
	}
	if len(a.Alarms) != len(b.Alarms) {
		t.Fatalf("alarm counts differ: %d vs %d", len(a.Alarms), len(b.Alarms))
	}
	for i := range a.Alarms {
		if a.Alarms[i] != b.Alarms[i] {
			t.Fatalf("alarm indices differ at %d", i)
		}
	}
}

func TestSustainedStepRaisesAlarm(t *testing.T) {
	xs := make([]float64, 0, 400)
	for i := 0; i < 200; i++ {
		xs = append(xs, 5.0)
	}
	for i := 0; i < 200; i++ {
		xs = append(xs, 5.5) // a clear sustained upward step
	}

	res, err := Process(xs, Config{Warmup: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Alarms) == 0 {
		t.Fatal("sustained step must raise at least one alarm")
	}
	for _, idx := range res.Alarms {
		if idx < 100 {
			t.Fatalf("alarm %d inside warmup", idx)
		}
		if idx < 200 {
			t.Fatalf("alarm %d before the step", idx)
		}
	}
}

func TestWarmupSuppression(t *testing.T) {
	// Huge immediate shift: without warmup this would alarm early.
	xs := make([]float64, 80)
	for i := range xs {
		xs[i] = float64(i) * 10
	}
	res, err := Process(xs, Config{Warmup: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Alarms) != 0 {
		t.Fatalf("alarms within warmup: %v", res.Alarms)
	}
}

func TestRearmAndNonNegativity(t *testing.T) {
	xs := noisySeries(150, 1.5, 0.05, 3)
	for i := 150; i < 600; i++ {
		xs = append(xs, 1.5+0.05*float64(i-149)) // persistent ramp, repeated detections
	}
	res, err := Process(xs, Config{Warmup: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Alarms) < 2 {
		t.Fatalf("persistent drift should re-detect after re-arm, got %v", res.Alarms)
	}
	for _, idx := range res.Alarms {
		if res.SPlus[idx] != 0 || res.SMinus[idx] != 0 {
			t.Fatalf("accumulators not re-armed at alarm index %d: %v %v",
				idx, res.SPlus[idx], res.SMinus[idx])
		}
	}
	for i := range xs {
		if res.SPlus[i] < 0 || res.SMinus[i] < 0 {
			t.Fatalf("negative accumulator at %d", i)
		}
	}
}

func TestVarianceFloor(t *testing.T) {
	xs := make([]float64, 400)
	for i := range xs {
		xs[i] = 3.0 // zero residuals drive the variance estimate toward zero
	}
	res, err := Process(xs, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	floor := math.Sqrt(varFloor)
	for i, s := range res.Sigma {
		if s < floor {
			t.Fatalf("sigma %v below floor at %d", s, i)
		}
	}
}

func TestDownwardDrift(t *testing.T) {
	xs := make([]float64, 0, 400)
	for i := 0; i < 200; i++ {
		xs = append(xs, 2.0)
	}
	for i := 0; i < 200; i++ {
		xs = append(xs, 1.0)
	}
	d := New(Config{Warmup: 100})
	var direction string
	for _, x := range xs {
		sr, err := d.Step(x)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		if sr.Alarmed && direction == "" {
			direction = sr.Direction
		}
	}
	if direction != "down" {
		t.Fatalf("expected first alarm direction down, got %q", direction)
	}
}

func TestNonFiniteSampleFailsFast(t *testing.T) {
	d := New(Config{})
	if _, err := d.Step(5.0); err != nil {
		t.Fatalf("finite sample: %v", err)
	}
	before := d.State()
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := d.Step(bad)
		if !errors.Is(err, ErrNonFinite) {
			t.Fatalf("expected ErrNonFinite for %v, got %v", bad, err)
		}
	}
	if d.State() != before {
		t.Fatal("state advanced on rejected input")
	}
}

func TestCheckpointResume(t *testing.T) {
	xs := noisySeries(300, 1.2, 0.08, 21)
	cfg := Config{Warmup: 50}

	straight := New(cfg)
	var straightStates []State
	for _, x := range xs {
		if _, err := straight.Step(x); err != nil {
			t.Fatalf("step: %v", err)
		}
		straightStates = append(straightStates, straight.State())
	}

	// Checkpoint halfway through a JSON round-trip, as the state store does.
	first := New(cfg)
	for _, x := range xs[:150] {
		if _, err := first.Step(x); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	b, err := json.Marshal(first.State())
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	var restored State
	if err := json.Unmarshal(b, &restored); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	second := Resume(cfg, restored)
	for _, x := range xs[150:] {
		if _, err := second.Step(x); err != nil {
			t.Fatalf("step: %v", err)
		}
	}

	if second.State() != straightStates[len(straightStates)-1] {
		t.Fatalf("resumed state diverged: %+v vs %+v",
			second.State(), straightStates[len(straightStates)-1])
	}
}

func TestResetBaselinePolicy(t *testing.T) {
	xs := make([]float64, 0, 300)
	for i := 0; i < 150; i++ {
		xs = append(xs, 5.0)
	}
	for i := 0; i < 150; i++ {
		xs = append(xs, 6.0)
	}

	d := New(Config{Warmup: 50, ResetBaseline: true})
	for _, x := range xs {
		sr, err := d.Step(x)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		if sr.Alarmed {
			if d.State().Mu != 6.0 {
				t.Fatalf("baseline not re-centered on alarm: %v", d.State().Mu)
			}
			return
		}
	}
	t.Fatal("expected an alarm")
}

func TestConfigDefaults(t *testing.T) {
	d := New(Config{})
	cfg := d.Config()
	if cfg.AlphaBaseline != 0.01 || cfg.AlphaVar != 0.05 || cfg.Delta != 0.25 ||
		cfg.H != 5.0 || cfg.Warmup != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.K() != 0.125 {
		t.Fatalf("reference value: %v", cfg.K())
	}
}
