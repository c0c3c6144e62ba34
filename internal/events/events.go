// Package events announces accepted settings snapshots to other processes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SimonPop/lanterns/internal/logfields"
	"github.com/nats-io/nats.go"
)

// DefaultSubject is the NATS subject settings events go to when none is
// configured.
const DefaultSubject = "lanterns.settings"

// flushTimeout bounds the wait for the server when the caller's context has
// no deadline of its own.
const flushTimeout = 5 * time.Second

// SettingsChanged is published every time the server accepts a new
// settings snapshot.
type SettingsChanged struct {
	ID          string          `json:"id"`
	Fingerprint string          `json:"fingerprint"`
	Sources     []string        `json:"sources"`
	LoadedAt    time.Time       `json:"loaded_at"`
	Settings    json.RawMessage `json:"settings"`
}

// Publisher delivers settings events.
type Publisher interface {
	Publish(ctx context.Context, ev SettingsChanged) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, SettingsChanged) error { return nil }
func (Nop) Close() error                                   { return nil }

// NATSPublisher publishes events as JSON on a core NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	log     *slog.Logger
}

// NewNATSPublisher connects to url. An empty subject means DefaultSubject.
func NewNATSPublisher(url, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("lanterns"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("NATS publisher connected", logfields.Addr(conn.ConnectedUrl()), logfields.Subject(subject))
	return &NATSPublisher{conn: conn, subject: subject, log: logger}, nil
}

// Publish sends ev and waits for the server to acknowledge it. Without a
// deadline on ctx the wait is bounded by flushTimeout.
func (p *NATSPublisher) Publish(ctx context.Context, ev SettingsChanged) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	p.log.Debug("Published settings event",
		logfields.Subject(p.subject),
		logfields.Snapshot(ev.ID),
		logfields.Fingerprint(ev.Fingerprint))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}

// Encode returns the wire form of ev.
func Encode(ev SettingsChanged) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}

// Decode parses the wire form produced by Encode.
func Decode(data []byte) (SettingsChanged, error) {
	var ev SettingsChanged
	if err := json.Unmarshal(data, &ev); err != nil {
		return SettingsChanged{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return ev, nil
}
