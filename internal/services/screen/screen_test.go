package screen

import (
	"errors"
	"math"
	"testing"
)

func TestFlatBaselineFlagsDeviation(t *testing.T) {
	res, err := PredictionInterval([]float64{10, 10, 10, 10}, 50, 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Outlier {
		t.Fatal("candidate far from a flat baseline must be flagged")
	}
	if res.PValue != 0 {
		t.Fatalf("expected zero p-value, got %v", res.PValue)
	}
	if res.Lower != 10 || res.Upper != 10 {
		t.Fatalf("degenerate interval expected, got [%v, %v]", res.Lower, res.Upper)
	}
}

func TestFlatBaselineAcceptsExactMatch(t *testing.T) {
	res, err := PredictionInterval([]float64{10, 10, 10}, 10, 0.05)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outlier {
		t.Fatal("exact match must not be flagged")
	}
	if res.PValue != 1 {
		t.Fatalf("expected p-value 1, got %v", res.PValue)
	}
}

func TestKnownInterval(t *testing.T) {
	// baseline {1,2,3,4}: mean 2.5, s ~1.2910, se_pred ~1.4434,
	// t(0.975, df=3) ~3.1824.
	res, err := PredictionInterval([]float64{1, 2, 3, 4}, 5, 0.05)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.Mean-2.5) > 1e-12 {
		t.Fatalf("mean: %v", res.Mean)
	}
	if math.Abs(res.Stddev-1.2909944487358056) > 1e-9 {
		t.Fatalf("stddev: %v", res.Stddev)
	}
	if math.Abs(res.Lower-(-2.0935)) > 1e-3 || math.Abs(res.Upper-7.0935) > 1e-3 {
		t.Fatalf("interval: [%v, %v]", res.Lower, res.Upper)
	}
	if res.Outlier {
		t.Fatal("5 lies inside the 95% interval for this baseline")
	}
	if math.Abs(res.PValue-0.1817) > 5e-3 {
		t.Fatalf("p-value: %v", res.PValue)
	}
}

func TestOutlierBelowLowerBound(t *testing.T) {
	base := []float64{1.8, 1.9, 2.0, 2.1, 2.2, 1.95, 2.05, 2.0}
	res, err := PredictionInterval(base, 0.2, 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Outlier {
		t.Fatalf("0.2 must fall below the interval [%v, %v]", res.Lower, res.Upper)
	}
}

func TestInsufficientBaseline(t *testing.T) {
	for _, base := range [][]float64{nil, {}, {3.2}} {
		_, err := PredictionInterval(base, 1, 0.01)
		if !errors.Is(err, ErrInsufficientBaseline) {
			t.Fatalf("baseline %v: expected ErrInsufficientBaseline, got %v", base, err)
		}
	}
}

func TestNonFiniteInput(t *testing.T) {
	if _, err := PredictionInterval([]float64{1, math.NaN()}, 1, 0.01); !errors.Is(err, ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
	if _, err := PredictionInterval([]float64{1, 2}, math.Inf(1), 0.01); !errors.Is(err, ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite, got %v", err)
	}
}

func TestAlphaFallback(t *testing.T) {
	base := []float64{1, 2, 3, 4, 5}
	a, err := PredictionInterval(base, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := PredictionInterval(base, 3, DefaultAlpha)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Lower != b.Lower || a.Upper != b.Upper {
		t.Fatal("invalid alpha must fall back to the default")
	}
}
