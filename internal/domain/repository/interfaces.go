package repository

import (
	"context"
	"time"

	"HemoWatch/internal/domain/models"
)

// SessionStream is a live feed of reduced transmission sessions from the
// sensor gateway.
type SessionStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Session, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher publishes accepted samples to the message backend.
type Publisher interface {
	Publish(ctx context.Context, s *models.Sample) error
	PublishBatch(ctx context.Context, samples []*models.Sample) error
	Close() error
}

// AlarmPublisher emits drift alarms. Delivery beyond the topic (paging,
// notifications) is out of scope.
type AlarmPublisher interface {
	PublishAlarm(ctx context.Context, a models.DriftAlarm) error
	Close() error
}

// Storage persists per-patient samples.
type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, s *models.Sample) error
	StoreBatch(ctx context.Context, samples []*models.Sample) error
	Query(ctx context.Context, patientID string, from, to time.Time, limit int) ([]*models.Sample, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// SeriesStore provides read access to a patient's monitored series for the
// drift detector and the outlier screen. Accepted samples only, in arrival
// order.
type SeriesStore interface {
	GetSeries(ctx context.Context, patientID string, from, to time.Time, limit int) ([]models.Sample, error)
	GetLatestN(ctx context.Context, patientID string, n int) ([]models.Sample, error)
}

// Metrics records operational counters for the pipeline.
type Metrics interface {
	RecordSampleRouted(backend, patientID string)
	RecordRejected(patientID string)
	RecordAlarm(patientID, direction string)
	RecordError(kind string)
	RecordLastValue(patientID string, value float64)
	RecordLatency(op string, seconds float64)
}
