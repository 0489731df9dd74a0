package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/scholarsite/internal/foundation/errors"
)

// NATSPublisher publishes events on a NATS connection.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials url and returns a publisher rooted at subject.
func Connect(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("scholarsite"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to connect to NATS").
			WithContext("url", url).Build()
	}
	slog.Info("NATS publisher connected", "url", url, "subject", subject)
	return NewNATSPublisher(conn, subject), nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject}
}

// Subject returns the subject an event of type t is published on.
func (p *NATSPublisher) Subject(t string) string {
	return p.subject + "." + t
}

// Publish sends ev and flushes so the event leaves before the run continues.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(p.Subject(ev.Type), data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to publish event").
			WithContext("type", ev.Type).Build()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to flush NATS connection").Build()
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
