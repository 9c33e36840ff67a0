package waveform

import (
	"errors"
	"testing"

	"HemoWatch/internal/domain/models"
)

func wf(pairs ...[2]float64) []models.WaveformPoint {
	out := make([]models.WaveformPoint, len(pairs))
	for i, p := range pairs {
		out[i] = models.WaveformPoint{Pressure: p[0], Time: p[1]}
	}
	return out
}

func expectBins(t *testing.T, bins []int, size int, want map[int]int) {
	t.Helper()
	if len(bins) != size {
		t.Fatalf("histogram size %d, want %d", len(bins), size)
	}
	for i, c := range bins {
		if c != want[i] {
			t.Fatalf("bin %d = %d, want %d", i, c, want[i])
		}
	}
}

func TestHistogramEmptyWaveform(t *testing.T) {
	bins, err := Histogram(nil, DefaultBlanking, ModeRound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bins) != 0 {
		t.Fatalf("expected empty histogram, got %v", bins)
	}
}

func TestHistogramRoundDefault(t *testing.T) {
	bins, err := Histogram(wf([2]float64{10.2, 0.0}, [2]float64{20.5, 0.2}, [2]float64{10.8, 0.4}),
		DefaultBlanking, ModeRound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 20.5 rounds half-to-even to 20
	expectBins(t, bins, 21, map[int]int{10: 1, 11: 1, 20: 1})
}

func TestHistogramBlanking(t *testing.T) {
	bins, err := Histogram(wf(
		[2]float64{10.2, 0.0}, [2]float64{15.5, 0.05}, [2]float64{20.5, 0.1},
		[2]float64{25.1, 0.15}, [2]float64{30.9, 0.2}),
		DefaultBlanking, ModeRound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectBins(t, bins, 32, map[int]int{10: 1, 20: 1, 31: 1})
}

func TestHistogramCustomBlanking(t *testing.T) {
	bins, err := Histogram(wf(
		[2]float64{10.2, 0.0}, [2]float64{15.5, 0.1}, [2]float64{20.5, 0.25},
		[2]float64{25.1, 0.3}, [2]float64{30.9, 0.5}),
		0.2, ModeRound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectBins(t, bins, 32, map[int]int{10: 1, 20: 1, 31: 1})
}

func TestHistogramFloor(t *testing.T) {
	bins, err := Histogram(wf([2]float64{10.2, 0.0}, [2]float64{20.5, 0.2}, [2]float64{10.8, 0.4}),
		DefaultBlanking, ModeFloor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectBins(t, bins, 21, map[int]int{10: 2, 20: 1})
}

func TestHistogramInvalidMode(t *testing.T) {
	_, err := Histogram(wf([2]float64{10.2, 0.0}), DefaultBlanking, "ceil")
	if !errors.Is(err, ErrInvalidQuantizeMode) {
		t.Fatalf("expected ErrInvalidQuantizeMode, got %v", err)
	}
	// empty waveform short-circuits before mode validation
	if _, err := Histogram(nil, DefaultBlanking, "ceil"); err != nil {
		t.Fatalf("empty waveform must not error: %v", err)
	}
}

func TestHistogramDeterministic(t *testing.T) {
	points := wf([2]float64{12.4, 0.0}, [2]float64{12.6, 0.2}, [2]float64{18.1, 0.4})
	a, err := Histogram(points, DefaultBlanking, ModeRound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Histogram(points, DefaultBlanking, ModeRound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != len(b) {
		t.Fatal("histogram size differs between runs")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("bin %d differs between runs", i)
		}
	}
}

func TestRepresentative(t *testing.T) {
	cases := []struct {
		name string
		bins []int
		want float64
		ok   bool
	}{
		// counts {10,2,8,5,8,1,12}: mode 8, matching indices {3,6}, median 4.5
		{"standard", []int{0, 10, 2, 8, 5, 0, 8, 1, 12}, 4.5, true},
		// counts {5,2,5,2,8,8}: frequencies tie, highest count 8 wins, indices {5,6}
		{"tie highest wins", []int{0, 5, 2, 5, 2, 8, 8}, 5.5, true},
		{"single bin", []int{0, 0, 5, 0, 0}, 2.0, true},
		{"all zero", []int{0, 0, 0, 0}, 0, false},
		// counts {5,2,8,5,8,1}: modes {5,8}, highest 8, indices {3,6}
		{"two-way mode tie", []int{0, 5, 2, 8, 5, 0, 8, 1}, 4.5, true},
	}
	for _, tc := range cases {
		got, ok := Representative(tc.bins)
		if ok != tc.ok {
			t.Fatalf("%s: ok=%v, want %v", tc.name, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestReduce(t *testing.T) {
	res, err := Reduce(wf([2]float64{10.2, 0.0}, [2]float64{20.5, 0.2}, [2]float64{10.8, 0.4}),
		DefaultBlanking, ModeRound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Representative == nil {
		t.Fatal("expected a representative value")
	}
	// bins 10, 11, 20 each once: counts all 1, median of {10,11,20} is 11
	if *res.Representative != 11 {
		t.Fatalf("representative = %v, want 11", *res.Representative)
	}

	res, err = Reduce(nil, DefaultBlanking, ModeRound)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Representative != nil {
		t.Fatalf("empty waveform must have no representative, got %v", *res.Representative)
	}
}
