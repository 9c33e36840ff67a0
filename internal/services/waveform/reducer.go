package waveform

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"HemoWatch/internal/domain/models"
)

// ErrInvalidQuantizeMode is returned for quantization modes other than
// "round" and "floor".
var ErrInvalidQuantizeMode = errors.New("waveform: quantize mode must be 'round' or 'floor'")

// Quantization modes for pressure binning.
const (
	ModeRound = "round"
	ModeFloor = "floor"
)

// DefaultBlanking is the refractory interval in time-units: samples closer
// than this to the last accepted one are ignored.
const DefaultBlanking = 0.1

// Histogram bins quantized pressures from an ordered waveform, gated by the
// blanking interval. The first sample is always accepted; a skipped sample
// does not move the gate. Pressures are assumed non-negative; a quantized
// value outside the bin range is dropped but still advances the gate, matching
// the session recorder's behavior. Round mode is half-to-even.
func Histogram(points []models.WaveformPoint, blanking float64, mode string) ([]int, error) {
	if len(points) == 0 {
		return []int{}, nil
	}
	if mode != ModeRound && mode != ModeFloor {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidQuantizeMode, mode)
	}

	maxP := points[0].Pressure
	for _, pt := range points[1:] {
		if pt.Pressure > maxP {
			maxP = pt.Pressure
		}
	}
	size := int(quantize(maxP, mode)) + 1
	if size < 1 {
		size = 1
	}

	bins := make([]int, size)
	lastTime := -blanking
	for _, pt := range points {
		if pt.Time-lastTime < blanking {
			continue
		}
		p := int(quantize(pt.Pressure, mode))
		if p >= 0 && p < size {
			bins[p]++
		}
		lastTime = pt.Time
	}
	return bins, nil
}

func quantize(p float64, mode string) float64 {
	if mode == ModeRound {
		return math.RoundToEven(p)
	}
	return math.Floor(p)
}

// Representative selects the representative pressure from a bin array: the
// mode of the non-zero counts, with the numerically highest count winning
// frequency ties, then the median of the bin indices holding that count.
// Returns false when no bin is non-zero.
func Representative(bins []int) (float64, bool) {
	freq := make(map[int]int)
	for _, c := range bins {
		if c > 0 {
			freq[c]++
		}
	}
	if len(freq) == 0 {
		return 0, false
	}

	maxFreq := 0
	for _, f := range freq {
		if f > maxFreq {
			maxFreq = f
		}
	}
	modal := 0
	for c, f := range freq {
		if f == maxFreq && c > modal {
			modal = c
		}
	}

	var idx []int
	for i, c := range bins {
		if c == modal {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	m := len(idx)
	if m%2 == 1 {
		return float64(idx[m/2]), true
	}
	return (float64(idx[m/2-1]) + float64(idx[m/2])) / 2, true
}

// Reduce runs the full session reduction: histogram plus the nullable
// representative value.
func Reduce(points []models.WaveformPoint, blanking float64, mode string) (models.ReducerResult, error) {
	bins, err := Histogram(points, blanking, mode)
	if err != nil {
		return models.ReducerResult{}, err
	}
	res := models.ReducerResult{Histogram: bins}
	if v, ok := Representative(bins); ok {
		res.Representative = &v
	}
	return res, nil
}
