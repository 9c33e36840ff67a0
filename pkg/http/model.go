package http

import "time"

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// APIResponse400Err documents the validation failure envelope.
type APIResponse400Err struct {
	Status  int               `json:"status" example:"400"`
	Message string            `json:"message" example:"Bad Request"`
	Data    []ValidationError `json:"data,omitempty"`
}

// APIResponse401Err documents the unauthorized envelope.
type APIResponse401Err struct {
	Status  int    `json:"status" example:"401"`
	Message string `json:"message" example:"Unauthorized"`
	Data    string `json:"data,omitempty" example:"Token is invalid"`
}

// APIResponse500Err documents the internal error envelope.
type APIResponse500Err struct {
	Status  int    `json:"status" example:"500"`
	Message string `json:"message" example:"Internal Server Error"`
	Data    string `json:"data,omitempty"`
}

// ValidationError is one field-level failure from request binding.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"patient_id"`
	Message string                 `json:"message,omitempty" example:"PatientID is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// ListDataResponse pairs rows with the total row count.
type ListDataResponse struct {
	Rows  interface{} `json:"rows"`
	Total int64       `json:"total"`
}

// TimeRange is an optional from/to filter for series queries.
type TimeRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}
