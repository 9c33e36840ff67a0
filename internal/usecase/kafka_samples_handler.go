package usecase

import (
	"context"
	"encoding/json"
	"time"

	"HemoWatch/internal/domain/models"
	domrepo "HemoWatch/internal/domain/repository"
	pkgkafka "HemoWatch/pkg/kafka"
)

// KafkaSamplesHandler consumes published samples and writes them to storage.
// Used when the routing backend is Kafka and persistence runs as a consumer.
type KafkaSamplesHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaSamplesHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaSamplesHandler {
	return &KafkaSamplesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaSamplesHandler) Topic() string { return h.topic }

// incoming message schema: {patient_id, t, v, accepted}
func (h *KafkaSamplesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		PatientID string  `json:"patient_id"`
		T         int64   `json:"t"`
		V         float64 `json:"v"`
		Accepted  bool    `json:"accepted"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	// E2E latency from session time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.Sample{
		PatientID: m.PatientID,
		Timestamp: m.T,
		Value:     m.V,
		Accepted:  m.Accepted,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordSampleRouted("clickhouse", m.PatientID)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSamplesHandler)(nil)
