package repository

import (
    "context"
    "database/sql"
    "fmt"
    "strings"
    "time"

	"HemoWatch/internal/domain/models"
	"HemoWatch/internal/domain/repository"
	pkgkafka "HemoWatch/pkg/kafka"
)

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.Storage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, sm *models.Sample) error {
	// Insert into rt_samples_raw schema
	q := fmt.Sprintf("INSERT INTO %s (ts, patient_id, value, accepted, source, event_id, seq) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	// Simple idempotency placeholders: event_id and seq derived from patient+timestamp
	eventID := fmt.Sprintf("%s-%d", sm.PatientID, sm.Timestamp)
	seq := uint64(sm.Timestamp)
	_, err := s.db.ExecContext(ctx, q,
		time.Unix(sm.Timestamp, 0),
		sm.PatientID,
		sm.Value,
		boolToUInt8(sm.Accepted),
		"gateway",
		eventID,
		seq,
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, samples []*models.Sample) error {
    if len(samples) == 0 {
        return nil
    }
    // Batch insert using VALUES multi-row to reduce round-trips.
    // Chunk size tuned to 2000 rows per batch.
    const chunkSize = 2000
    for start := 0; start < len(samples); start += chunkSize {
        end := start + chunkSize
        if end > len(samples) { end = len(samples) }

        // Build VALUES list
        values := make([]string, 0, end-start)
        args := make([]interface{}, 0, (end-start)*7)
        for _, sm := range samples[start:end] {
            if sm == nil || sm.PatientID == "" || sm.Timestamp == 0 { continue }
            eventID := fmt.Sprintf("%s-%d", sm.PatientID, sm.Timestamp)
            seq := uint64(sm.Timestamp)
            values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
            args = append(args,
                time.Unix(sm.Timestamp, 0),
                sm.PatientID,
                sm.Value,
                boolToUInt8(sm.Accepted),
                "gateway",
                eventID,
                seq,
            )
        }
        if len(values) == 0 { continue }
        q := fmt.Sprintf("INSERT INTO %s (ts, patient_id, value, accepted, source, event_id, seq) VALUES %s", s.table, strings.Join(values, ","))
        if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
            return err
        }
    }
    return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, patientID string, from, to time.Time, limit int) ([]*models.Sample, error) {
	q := fmt.Sprintf("SELECT patient_id, ts, value, accepted FROM %s WHERE patient_id = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, patientID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []*models.Sample
	for rows.Next() {
		var sm models.Sample
		var ts time.Time
		var accepted uint8
		if err := rows.Scan(&sm.PatientID, &ts, &sm.Value, &accepted); err != nil {
			return nil, err
		}
		sm.Timestamp = ts.Unix()
		sm.Accepted = accepted != 0
		samples = append(samples, &sm)
	}
	return samples, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
    producer *pkgkafka.Producer
    topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, sm *models.Sample) error {
	return p.producer.Publish(ctx, p.topic, []byte(sm.PatientID), map[string]interface{}{
		"patient_id": sm.PatientID,
		"t":          sm.Timestamp,
		"v":          sm.Value,
		"accepted":   sm.Accepted,
	})
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, samples []*models.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(samples))
	for i, sm := range samples {
		msgs[i] = pkgkafka.Message{
			Key: []byte(sm.PatientID),
			Value: map[string]interface{}{
				"patient_id": sm.PatientID,
				"t":          sm.Timestamp,
				"v":          sm.Value,
				"accepted":   sm.Accepted,
			},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
    if p.producer != nil {
        return p.producer.Close()
    }
    return nil
}

// KafkaAlarmPublisher implements AlarmPublisher for Kafka. Alarms and samples
// go to separate topics so downstream consumers can subscribe independently.
type KafkaAlarmPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAlarmPublisher creates a Kafka alarm publisher.
func NewKafkaAlarmPublisher(producer *pkgkafka.Producer, topic string) repository.AlarmPublisher {
	return &KafkaAlarmPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlarmPublisher) PublishAlarm(ctx context.Context, a models.DriftAlarm) error {
	return p.producer.Publish(ctx, p.topic, []byte(a.PatientID), map[string]interface{}{
		"patient_id": a.PatientID,
		"ts":         a.Timestamp.Unix(),
		"index":      a.Index,
		"direction":  a.Direction,
		"s_plus":     a.SPlus,
		"s_minus":    a.SMinus,
		"mu":         a.Mu,
		"sigma":      a.Sigma,
	})
}

func (p *KafkaAlarmPublisher) Close() error {
	// The producer is shared with the sample publisher and closed there.
	return nil
}
