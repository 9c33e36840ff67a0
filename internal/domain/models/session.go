package models

import "time"

// WaveformPoint is one quantizable (pressure, time) pair from a raw
// transmission. Pressure is in mmHg, Time in seconds from session start.
type WaveformPoint struct {
	Pressure float64 `json:"p"`
	Time     float64 `json:"t"`
}

// Session is one raw transmission from an implanted PA sensor: the full
// waveform plus identity. A session reduces to at most one Sample.
type Session struct {
	PatientID string          `json:"patient_id"`
	Timestamp int64           `json:"ts"` // unix seconds at capture
	Waveform  []WaveformPoint `json:"waveform"`
}

// Sample is the per-session scalar appended to a patient's monitored series:
// the pulsatility ratio (PAsys - PAdia) / PAmean, or a reduced representative
// pressure depending on the gateway channel.
type Sample struct {
	PatientID string  `json:"patient_id"`
	Timestamp int64   `json:"ts"`
	Value     float64 `json:"value"`
	Accepted  bool    `json:"accepted"`
}

// DriftAlarm records a sustained-drift detection event for a patient.
type DriftAlarm struct {
	PatientID string    `json:"patient_id"`
	Timestamp time.Time `json:"ts"`
	Index     int       `json:"index"`     // zero-based index into the series
	Direction string    `json:"direction"` // "up" or "down"
	SPlus     float64   `json:"s_plus"`    // accumulator values at the crossing
	SMinus    float64   `json:"s_minus"`
	Mu        float64   `json:"mu"`
	Sigma     float64   `json:"sigma"`
}
