package screen

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInsufficientBaseline is returned when the reference sample is too small
// to form a prediction interval.
var ErrInsufficientBaseline = errors.New("screen: need at least 2 baseline points")

// ErrNonFinite is returned when the baseline or candidate contains NaN/Inf.
var ErrNonFinite = errors.New("screen: non-finite input")

// DefaultAlpha is the two-sided significance level of the screen.
const DefaultAlpha = 0.01

// Result is the two-sided prediction-interval test outcome for one candidate.
type Result struct {
	Lower   float64 `json:"lower"`
	Upper   float64 `json:"upper"`
	PValue  float64 `json:"p_value"`
	Outlier bool    `json:"outlier"`
	Mean    float64 `json:"mean"`
	Stddev  float64 `json:"stddev"`
	N       int     `json:"n"`
}

// PredictionInterval tests whether candidate is consistent with the baseline
// sample: a two-sided interval around the baseline mean using the unbiased
// sample standard deviation and a Student's-t critical value with n-1 degrees
// of freedom. Alpha outside (0, 1) falls back to DefaultAlpha.
func PredictionInterval(baseline []float64, candidate, alpha float64) (Result, error) {
	n := len(baseline)
	if n < 2 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInsufficientBaseline, n)
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	if math.IsNaN(candidate) || math.IsInf(candidate, 0) {
		return Result{}, fmt.Errorf("%w: candidate %v", ErrNonFinite, candidate)
	}

	var sum float64
	for _, v := range baseline {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, fmt.Errorf("%w: baseline value %v", ErrNonFinite, v)
		}
		sum += v
	}
	mean := sum / float64(n)

	var ss float64
	for _, v := range baseline {
		d := v - mean
		ss += d * d
	}
	s := math.Sqrt(ss / float64(n-1))

	// one future observation: se = s * sqrt(1 + 1/n)
	sePred := s * math.Sqrt(1+1/float64(n))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	tcrit := dist.Quantile(1 - alpha/2)

	var p float64
	switch {
	case sePred > 0:
		tstat := (candidate - mean) / sePred
		p = 2 * (1 - dist.CDF(math.Abs(tstat)))
	case candidate == mean:
		p = 1
	default:
		// constant baseline, any deviation is infinitely surprising
		p = 0
	}

	lo := mean - tcrit*sePred
	hi := mean + tcrit*sePred
	return Result{
		Lower:   lo,
		Upper:   hi,
		PValue:  p,
		Outlier: candidate < lo || candidate > hi,
		Mean:    mean,
		Stddev:  s,
		N:       n,
	}, nil
}
