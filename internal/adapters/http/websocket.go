package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/mapscreen/internal/adapters/nats"
	"github.com/samirrijal/mapscreen/internal/pkg/metrics"
)

const (
	wsPingInterval = 30 * time.Second
	wsAllSubject   = "mapscreen.>"
)

// wsCommand narrows or widens the relayed feed.
type wsCommand struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "all" | "routes" | "surface" | "device"
	Outcome string `json:"outcome"` // route outcome filter, "" for every outcome
}

// wsReply acknowledges a command.
type wsReply struct {
	Status  string `json:"status,omitempty"`
	Subject string `json:"subject,omitempty"`
	Error   string `json:"error,omitempty"`
}

// wsEvent wraps a relayed NATS message.
type wsEvent struct {
	Subject string          `json:"subject"`
	Data    json.RawMessage `json:"data"`
}

func channelSubject(cmd wsCommand) (string, bool) {
	switch cmd.Channel {
	case "", "all":
		return wsAllSubject, true
	case "routes":
		if cmd.Outcome != "" {
			return natsadapter.SubjectRoutePrefix + cmd.Outcome, true
		}
		return natsadapter.SubjectRoutePrefix + ">", true
	case "surface":
		return "mapscreen.surface.>", true
	case "device":
		return "mapscreen.device.>", true
	}
	return "", false
}

// wsSession is one client's set of relayed subjects. Writes are serialized
// because NATS callbacks and the ping loop share the connection.
type wsSession struct {
	conn *websocket.Conn
	nc   *nats.Conn

	writeMu sync.Mutex
	subs    map[string]*nats.Subscription
}

func (s *wsSession) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *wsSession) send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = s.write(websocket.TextMessage, data)
}

func (s *wsSession) relay(msg *nats.Msg) {
	data := json.RawMessage(msg.Data)
	if !json.Valid(data) {
		data, _ = json.Marshal(string(msg.Data))
	}
	s.send(wsEvent{Subject: msg.Subject, Data: data})
}

func (s *wsSession) subscribe(subject string) wsReply {
	if _, ok := s.subs[subject]; ok {
		return wsReply{Status: "already subscribed", Subject: subject}
	}
	sub, err := s.nc.Subscribe(subject, s.relay)
	if err != nil {
		return wsReply{Error: "subscribe failed: " + err.Error()}
	}
	s.subs[subject] = sub
	return wsReply{Status: "subscribed", Subject: subject}
}

func (s *wsSession) unsubscribe(subject string) wsReply {
	sub, ok := s.subs[subject]
	if !ok {
		return wsReply{Error: "not subscribed to " + subject}
	}
	_ = sub.Unsubscribe()
	delete(s.subs, subject)
	return wsReply{Status: "unsubscribed", Subject: subject}
}

func (s *wsSession) handle(raw []byte) wsReply {
	var cmd wsCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return wsReply{Error: "invalid JSON"}
	}
	subject, ok := channelSubject(cmd)
	if !ok {
		return wsReply{Error: "unknown channel: " + cmd.Channel}
	}
	switch cmd.Action {
	case "subscribe":
		return s.subscribe(subject)
	case "unsubscribe":
		return s.unsubscribe(subject)
	}
	return wsReply{Error: "unknown action: " + cmd.Action}
}

func (s *wsSession) close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}

func (s *wsSession) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// WebSocketHandler relays map screen events published on NATS to the client.
// Clients start subscribed to everything under mapscreen.> and may narrow it:
// {"action":"unsubscribe","channel":"all"} then
// {"action":"subscribe","channel":"routes","outcome":"displayed"}.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		log := slog.With("remote", c.RemoteAddr().String())
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		s := &wsSession{conn: c, nc: nc, subs: make(map[string]*nats.Subscription)}
		defer s.close()

		if r := s.subscribe(wsAllSubject); r.Error != "" {
			log.Error("ws default subscribe failed", "error", r.Error)
			return
		}
		log.Info("ws client connected")

		done := make(chan struct{})
		defer close(done)
		go s.pingLoop(done)

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}
			s.send(s.handle(raw))
		}
		log.Info("ws client disconnected")
	}
}
