package models

import "time"

// ScreenResult is the outcome of the baseline prediction-interval screen for
// one candidate value.
type ScreenResult struct {
	PatientID string    `json:"patient_id,omitempty"`
	Timestamp time.Time `json:"ts"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
	PValue    float64   `json:"p_value"`
	Outlier   bool      `json:"outlier"`
	Baseline  int       `json:"baseline_n"` // reference points used
}

// DriftReport is the batch drift-detection output over a stored series:
// five parallel trajectories plus alarm indices.
type DriftReport struct {
	PatientID string       `json:"patient_id"`
	Timestamp time.Time    `json:"ts"`
	Count     int          `json:"count"`
	Alarms    []int        `json:"alarms"`
	Mu        []float64    `json:"mu"`
	Sigma     []float64    `json:"sigma"`
	SPlus     []float64    `json:"s_plus"`
	SMinus    []float64    `json:"s_minus"`
	Events    []DriftAlarm `json:"events,omitempty"`
}

// ReducerResult is the waveform reducer output: the pressure histogram and
// the nullable representative value.
type ReducerResult struct {
	Histogram      []int    `json:"histogram"`
	Representative *float64 `json:"representative"` // nil when no non-zero bins
}

// SessionResult is the end-to-end outcome of ingesting one session.
type SessionResult struct {
	PatientID      string        `json:"patient_id"`
	Timestamp      time.Time     `json:"ts"`
	Representative *float64      `json:"representative"`
	Screen         *ScreenResult `json:"screen,omitempty"`
	Accepted       bool          `json:"accepted"`
	Alarmed        bool          `json:"alarmed"`
	Alarm          *DriftAlarm   `json:"alarm,omitempty"`
	SeriesLength   int           `json:"series_length"`
}
