package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapscreen/internal/core/domain"
)

const (
	// SubjectRoutePrefix is followed by the outcome, e.g. mapscreen.route.displayed.
	SubjectRoutePrefix = "mapscreen.route."
	// SubjectSurfaceChanged carries the surface version after each mutation.
	SubjectSurfaceChanged = "mapscreen.surface.changed"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure the route stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "MAPSCREEN_ROUTES",
		Subjects:  []string{SubjectRoutePrefix + ">"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist
		if _, err := js.UpdateStream(&cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishRouteOutcome publishes to mapscreen.route.<outcome>.
func (p *Publisher) PublishRouteOutcome(ctx context.Context, outcome *domain.RouteOutcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectRoutePrefix+string(outcome.Outcome), data, nats.Context(ctx), nats.MsgId(outcome.RequestID))
	return err
}

// PublishSurfaceChanged announces a new surface version on core NATS.
func (p *Publisher) PublishSurfaceChanged(version uint64) error {
	data, err := json.Marshal(map[string]uint64{"version": version})
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectSurfaceChanged, data)
}

// Conn exposes the underlying connection for health checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("mapscreen"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
