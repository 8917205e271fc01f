package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/surveyplan/internal/adapters/nats"
	"github.com/samirrijal/surveyplan/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to plan events.
type wsMessage struct {
	Action string `json:"action"`  // "subscribe" | "unsubscribe"
	Event  string `json:"event"`   // "created" | "deleted" | "" for both
	PlanID string `json:"plan_id"` // optional filter
}

// eventSubject builds the NATS subject for a subscription request.
func eventSubject(m wsMessage) (string, bool) {
	event := m.Event
	switch event {
	case "":
		event = "*"
	case "created", "deleted":
	default:
		return "", false
	}
	if m.PlanID == "" {
		return "survey.plan." + event + ".>", true
	}
	// IDs are a single subject token.
	if strings.ContainsAny(m.PlanID, ".*> \t") {
		return "", false
	}
	return "survey.plan." + event + "." + m.PlanID, true
}

// supersededSubjects lists the active subscriptions a new subscription to
// subject replaces. The catch-all default goes as soon as a client asks for
// something narrower; explicit subscriptions stay, and an event matching
// several of them is delivered once per match.
func supersededSubjects(active map[string]*nats.Subscription, subject string) []string {
	if subject == natsadapter.SubjectPlanEvents {
		return nil
	}
	if _, ok := active[natsadapter.SubjectPlanEvents]; ok {
		return []string{natsadapter.SubjectPlanEvents}
	}
	return nil
}

// WebSocketHandler relays plan events from NATS to connected clients as JSON.
// Every client starts subscribed to all events. The first narrower
// {"action":"subscribe","event":"deleted","plan_id":"..."} replaces that
// default; subscribing with no event and no plan_id restores it.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		if nc == nil {
			_ = c.WriteMessage(websocket.TextMessage, []byte(`{"error":"event stream unavailable"}`))
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject -> subscription

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		relay := func(msg *nats.Msg) {
			data, err := natsadapter.ToJSON(msg.Data)
			if err != nil {
				slog.Warn("ws dropping undecodable event", "subject", msg.Subject, "error", err)
				return
			}
			_ = writeJSON(json.RawMessage(data))
		}

		sub, err := nc.Subscribe(natsadapter.SubjectPlanEvents, relay)
		if err != nil {
			slog.Error("ws default subscribe failed", "error", err)
			return
		}
		subs[natsadapter.SubjectPlanEvents] = sub

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, ok := eventSubject(m)
			if !ok {
				_ = writeJSON(map[string]string{"error": "invalid subscription: event must be created or deleted, plan_id a single token"})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				for _, old := range supersededSubjects(subs, subject) {
					_ = subs[old].Unsubscribe()
					delete(subs, old)
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
