package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"HemoWatch/internal/domain/models"
	drepo "HemoWatch/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a SessionStream backed by the sensor gateway WebSocket.
type Client struct {
	apiKey         string
	websocketURL   string
	patients       []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new gateway SessionStream.
func New(apiKey, websocketURL string, patients []string, reconnectDelay, pingInterval time.Duration) drepo.SessionStream {
	return &Client{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		patients:       patients,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", c.websocketURL, c.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("gateway connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("gateway: connected")
	return nil
}

// Subscribe subscribes to configured patients.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("gateway not connected")
	}
	for _, p := range c.patients {
		msg := map[string]string{"type": "subscribe", "patient": p}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", p, err)
		}
		log.Printf("gateway: subscribed %s", p)
	}
	return nil
}

type gwPoint struct {
	P float64 `json:"p"` // mmHg
	T float64 `json:"t"` // seconds from session start
}

type gwSession struct {
	Patient  string    `json:"patient"`
	TS       int64     `json:"ts"` // ms
	Waveform []gwPoint `json:"waveform"`
}

type gwMessage struct {
	Type string      `json:"type"`
	Data []gwSession `json:"data"`
}

// Read streams Session events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Session, <-chan error) {
	sessions := make(chan *models.Session, 256)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(sessions)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("gateway conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("gateway read: %w", err)
					return
				}
				var m gwMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-session frames
					continue
				}
				if m.Type != "session" {
					continue
				}
				for _, d := range m.Data {
					sec := d.TS / 1000
					wf := make([]models.WaveformPoint, len(d.Waveform))
					for i, pt := range d.Waveform {
						wf[i] = models.WaveformPoint{Pressure: pt.P, Time: pt.T}
					}
					sess := &models.Session{PatientID: d.Patient, Timestamp: sec, Waveform: wf}
					select {
					case sessions <- sess:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return sessions, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
