package gateway

import (
	"context"
	"fmt"
	"time"

	"HemoWatch/internal/domain/models"
	xhttp "HemoWatch/pkg/http"
)

// BackfillClient fetches historical sessions from the gateway REST API. Used
// by the replay job to rebuild a patient's series after downtime.
type BackfillClient struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

// NewBackfillClient builds an HTTP client with timeout and base URL.
func NewBackfillClient(baseURL, apiKey string, timeout time.Duration) *BackfillClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BackfillClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type backfillResponse struct {
	Patient  string      `json:"patient"`
	Sessions []gwSession `json:"sessions"`
}

// FetchSessions returns stored sessions for a patient in [from, to],
// oldest first.
func (b *BackfillClient) FetchSessions(ctx context.Context, patientID string, from, to time.Time) ([]*models.Session, error) {
	if b.client == nil || b.baseURL == "" {
		return nil, fmt.Errorf("gateway backfill client not initialized")
	}
	var resp backfillResponse
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v1/patients/%s/sessions", b.baseURL, patientID),
		Headers: map[string]string{
			"Authorization": "Bearer " + b.apiKey,
		},
		QueryParams: map[string][]string{
			"from": {fmt.Sprintf("%d", from.Unix())},
			"to":   {fmt.Sprintf("%d", to.Unix())},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("backfill %s: %w", patientID, err)
	}

	out := make([]*models.Session, 0, len(resp.Sessions))
	for _, d := range resp.Sessions {
		sec := d.TS
		if sec > 1e11 { // ms
			sec = sec / 1000
		}
		wf := make([]models.WaveformPoint, len(d.Waveform))
		for i, pt := range d.Waveform {
			wf[i] = models.WaveformPoint{Pressure: pt.P, Time: pt.T}
		}
		out = append(out, &models.Session{PatientID: d.Patient, Timestamp: sec, Waveform: wf})
	}
	return out, nil
}
