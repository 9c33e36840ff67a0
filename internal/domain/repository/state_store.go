package repository

import (
	"context"

	"HemoWatch/internal/services/drift"
)

// StateStore checkpoints detector state between sessions so the streaming
// detector survives restarts. One state record per patient; the caller is the
// single logical owner of a patient's state.
type StateStore interface {
	Load(ctx context.Context, patientID string) (drift.State, bool, error)
	Save(ctx context.Context, patientID string, st drift.State) error
	Reset(ctx context.Context, patientID string) error
}
