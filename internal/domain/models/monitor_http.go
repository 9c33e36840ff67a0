package models

// Requests for monitoring HTTP endpoints. Defined in domain for consistency and reuse.

type IngestSessionRequest struct {
	PatientID string          `json:"patient_id" validate:"required"`
	Timestamp int64           `json:"ts"`
	Waveform  []WaveformPoint `json:"waveform" validate:"required,min=1"`
	Blanking  float64         `json:"blanking" default:"0.1" validate:"gte=0"`
	Quantize  string          `json:"quantize" default:"round" validate:"oneof=round floor"`
}

type ScreenRequest struct {
	PatientID string    `json:"patient_id"`
	Baseline  []float64 `json:"baseline" validate:"required,min=2"`
	Candidate float64   `json:"candidate"`
	Alpha     float64   `json:"alpha" default:"0.01" validate:"gt=0,lt=1"`
}

type ReduceRequest struct {
	Waveform []WaveformPoint `json:"waveform" validate:"required"`
	Blanking float64         `json:"blanking" default:"0.1" validate:"gte=0"`
	Quantize string          `json:"quantize" default:"round" validate:"oneof=round floor"`
}

type DriftRequest struct {
	PatientID string `query:"patient" json:"patient" validate:"required"`
	N         int    `query:"n" json:"n" default:"1000" validate:"gte=1,lte=50000"`
}

type SeriesRequest struct {
	PatientID string `query:"patient" json:"patient" validate:"required"`
	From      string `query:"from" json:"from"`
	To        string `query:"to" json:"to"`
	Limit     int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
}

type StateRequest struct {
	PatientID string `query:"patient" json:"patient" validate:"required"`
}
