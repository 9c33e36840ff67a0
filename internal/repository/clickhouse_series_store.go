package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"HemoWatch/internal/domain/models"
	pkgch "HemoWatch/pkg/clickhouse"
	applogger "HemoWatch/pkg/logger"
)

// CHSeriesStore implements SeriesStore backed by ClickHouse. It reads only
// accepted samples, in arrival order, which is what the drift detector and
// the outlier screen expect.
type CHSeriesStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSeriesStore(ch *pkgch.Client, table string) *CHSeriesStore {
	return &CHSeriesStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHSeriesStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSeriesStore) GetSeries(ctx context.Context, patientID string, from, to time.Time, limit int) ([]models.Sample, error) {
	start := time.Now()
	const qtpl = `
        SELECT patient_id, ts, value
        FROM %s
        WHERE patient_id = ? AND accepted = 1 AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, patientID, from, to, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_series query error",
				applogger.String("table", s.table),
				applogger.String("patient", patientID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get series: %w", err)
	}
	defer rows.Close()

	out := make([]models.Sample, 0, 1024)
	for rows.Next() {
		var sm models.Sample
		var ts time.Time
		if err := rows.Scan(&sm.PatientID, &ts, &sm.Value); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_series scan error",
					applogger.String("table", s.table),
					applogger.String("patient", patientID),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sm.Timestamp = ts.Unix()
		sm.Accepted = true
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_series rows error",
				applogger.String("table", s.table),
				applogger.String("patient", patientID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_series ok",
			applogger.String("table", s.table),
			applogger.String("patient", patientID),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHSeriesStore) GetLatestN(ctx context.Context, patientID string, n int) ([]models.Sample, error) {
	start := time.Now()
	const qtpl = `
        SELECT patient_id, ts, value
        FROM %s
        WHERE patient_id = ? AND accepted = 1
        ORDER BY ts DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, patientID, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_samples query error",
				applogger.String("table", s.table),
				applogger.String("patient", patientID),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest samples: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Sample, 0, n)
	for rows.Next() {
		var sm models.Sample
		var ts time.Time
		if err := rows.Scan(&sm.PatientID, &ts, &sm.Value); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse latest_samples scan error",
					applogger.String("table", s.table),
					applogger.String("patient", patientID),
					applogger.Int("limit", n),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sm.Timestamp = ts.Unix()
		sm.Accepted = true
		tmp = append(tmp, sm)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_samples rows error",
				applogger.String("table", s.table),
				applogger.String("patient", patientID),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_samples ok",
			applogger.String("table", s.table),
			applogger.String("patient", patientID),
			applogger.Int("limit", n),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}
