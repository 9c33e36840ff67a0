package drift

import "fmt"

// Result holds the batch trajectories: four series parallel to the input plus
// zero-based alarm indices. Directions is parallel to Alarms.
type Result struct {
	Alarms     []int
	Directions []string
	Mu         []float64
	Sigma      []float64
	SPlus      []float64
	SMinus     []float64
}

// Process runs the detector over a full historical series from a fresh state.
// An empty series yields an empty Result and no error. A non-finite sample
// fails fast without a partial result.
func Process(xs []float64, cfg Config) (Result, error) {
	res := Result{
		Alarms:     []int{},
		Directions: []string{},
		Mu:         make([]float64, 0, len(xs)),
		Sigma:      make([]float64, 0, len(xs)),
		SPlus:      make([]float64, 0, len(xs)),
		SMinus:     make([]float64, 0, len(xs)),
	}
	d := New(cfg)
	for i, x := range xs {
		sr, err := d.Step(x)
		if err != nil {
			return Result{}, fmt.Errorf("process sample %d: %w", i, err)
		}
		res.Mu = append(res.Mu, sr.Mu)
		res.Sigma = append(res.Sigma, sr.Sigma)
		res.SPlus = append(res.SPlus, sr.SPlus)
		res.SMinus = append(res.SMinus, sr.SMinus)
		if sr.Alarmed {
			res.Alarms = append(res.Alarms, i)
			res.Directions = append(res.Directions, sr.Direction)
		}
	}
	return res, nil
}
