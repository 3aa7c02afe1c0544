package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapscreen/internal/core/domain"
)

const (
	SubjectDeviceLocation      = "mapscreen.device.location"
	SubjectDeviceAuthorization = "mapscreen.device.authorization"
)

// LocationMessage is the payload on SubjectDeviceLocation.
type LocationMessage struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// AuthorizationMessage is the payload on SubjectDeviceAuthorization.
type AuthorizationMessage struct {
	Status domain.AuthorizationStatus `json:"status"`
}

// DeviceHandlers receive decoded device messages.
type DeviceHandlers struct {
	Location      func(ctx context.Context, p domain.GeoPoint) error
	Authorization func(ctx context.Context, s domain.AuthorizationStatus) error
}

// Subscriber feeds device updates published on core NATS to handlers.
// Device data is only meaningful while fresh, so nothing is persisted.
type Subscriber struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

// NewSubscriber wraps an existing connection.
func NewSubscriber(conn *nats.Conn) *Subscriber {
	return &Subscriber{conn: conn}
}

// SubscribeDevice subscribes to the device subjects. Nil handlers are skipped.
func (s *Subscriber) SubscribeDevice(ctx context.Context, h DeviceHandlers) error {
	if h.Location != nil {
		sub, err := s.conn.Subscribe(SubjectDeviceLocation, func(msg *nats.Msg) {
			var m LocationMessage
			if err := json.Unmarshal(msg.Data, &m); err != nil {
				slog.Warn("bad device location message", "error", err)
				return
			}
			if err := h.Location(ctx, domain.GeoPoint{Lat: m.Lat, Lon: m.Lon}); err != nil {
				slog.Warn("device location rejected", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", SubjectDeviceLocation, err)
		}
		s.subs = append(s.subs, sub)
	}

	if h.Authorization != nil {
		sub, err := s.conn.Subscribe(SubjectDeviceAuthorization, func(msg *nats.Msg) {
			var m AuthorizationMessage
			if err := json.Unmarshal(msg.Data, &m); err != nil {
				slog.Warn("bad device authorization message", "error", err)
				return
			}
			if err := h.Authorization(ctx, m.Status); err != nil {
				slog.Warn("device authorization rejected", "status", string(m.Status), "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", SubjectDeviceAuthorization, err)
		}
		s.subs = append(s.subs, sub)
	}
	return nil
}

// Close unsubscribes. The connection is owned by the caller.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}
