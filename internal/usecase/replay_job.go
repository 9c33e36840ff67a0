package usecase

import (
	"context"
	"fmt"
	"time"

	"HemoWatch/internal/service/gateway"
	applogger "HemoWatch/pkg/logger"
	"HemoWatch/pkg/queue"
)

// ReplayRequest asks for a patient's stored sessions to be re-ingested after
// gateway downtime. Timestamps are unix seconds.
type ReplayRequest struct {
	PatientID string `json:"patient_id"`
	From      int64  `json:"from"`
	To        int64  `json:"to"`
}

// ReplayJob re-ingests backfilled sessions through the monitor path.
// Detector state advances exactly as it would have live, in session order.
type ReplayJob struct {
	backfill *gateway.BackfillClient
	monitor  *MonitorUseCase
	l        *applogger.Logger
}

func NewReplayJob(backfill *gateway.BackfillClient, monitor *MonitorUseCase, l *applogger.Logger) *ReplayJob {
	return &ReplayJob{backfill: backfill, monitor: monitor, l: l}
}

func (j *ReplayJob) Name() string { return "session_replay" }

func (j *ReplayJob) Type() string { return "replay.sessions" }

func (j *ReplayJob) Handle(ctx context.Context, payload interface{}) error {
	req, err := queue.ParsePayload[ReplayRequest](payload)
	if err != nil {
		return fmt.Errorf("replay payload: %w", err)
	}
	if req.PatientID == "" {
		return fmt.Errorf("replay: patient required")
	}
	from := time.Unix(req.From, 0)
	to := time.Unix(req.To, 0)
	if req.To == 0 {
		to = time.Now()
	}

	sessions, err := j.backfill.FetchSessions(ctx, req.PatientID, from, to)
	if err != nil {
		return err
	}

	var failed int
	for _, s := range sessions {
		if _, err := j.monitor.IngestSession(ctx, s); err != nil {
			failed++
			if j.l != nil {
				j.l.Error("replay ingest failed",
					applogger.String("patient", req.PatientID),
					applogger.Error(err),
				)
			}
		}
	}
	if j.l != nil {
		j.l.Info("replay done",
			applogger.String("patient", req.PatientID),
			applogger.Int("sessions", len(sessions)),
			applogger.Int("failed", failed),
		)
	}
	if failed == len(sessions) && len(sessions) > 0 {
		return fmt.Errorf("replay: all %d sessions failed", failed)
	}
	return nil
}

var _ queue.Job = (*ReplayJob)(nil)
