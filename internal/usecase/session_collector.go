package usecase

import (
	"HemoWatch/internal/domain/models"
	drepo "HemoWatch/internal/domain/repository"
	mid "HemoWatch/internal/middleware"
	"context"
)

// SessionCollector drains the gateway stream and feeds the monitor.
type SessionCollector struct {
	stream  drepo.SessionStream
	monitor *MonitorUseCase
	metrics drepo.Metrics
	pipe    *mid.RealtimePipeline
}

// NewSessionCollector creates a new SessionCollector instance.
func NewSessionCollector(stream drepo.SessionStream, monitor *MonitorUseCase, metrics drepo.Metrics, pipe *mid.RealtimePipeline) *SessionCollector {
	return &SessionCollector{stream: stream, monitor: monitor, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the gateway stream is connected.
func (c *SessionCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *SessionCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	sessCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, sessCh, errCh)
	return nil
}

func (c *SessionCollector) consume(ctx context.Context, sessCh <-chan *models.Session, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case s := <-sessCh:
			if s == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, s)
			} else {
				_ = c.monitor.Process(ctx, s)
			}
		}
	}
}

func (c *SessionCollector) Stop() error { return c.stream.Close() }

// Monitor returns the underlying MonitorUseCase for lifecycle management.
func (c *SessionCollector) Monitor() *MonitorUseCase { return c.monitor }

// Shutdown stops pipeline and closes stream.
func (c *SessionCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
