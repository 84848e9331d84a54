package http

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/encinapp/encinapp/internal/adapters/nats"
	"github.com/encinapp/encinapp/internal/core/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action   string `json:"action"`   // "subscribe" | "unsubscribe"
	Channel  string `json:"channel"`  // "alerts" | "created" | "deleted" (default: alerts)
	Category string `json:"category"` // optional category filter, "" = all
}

// WebSocketHandler returns a handler that relays alert events published on
// NATS to connected clients. Every client starts subscribed to all alert
// events. Clients send JSON such as
// {"action":"subscribe","channel":"created","category":"security"}.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // key -> subscription

		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		relay := func(filter domain.CategoryFilter) nats.MsgHandler {
			return func(msg *nats.Msg) {
				if !filter.All() {
					var ev domain.AlertEvent
					if err := json.Unmarshal(msg.Data, &ev); err != nil || !filter.Matches(ev.Alert.Category) {
						return
					}
				}
				_ = writeJSON(jsoniter.RawMessage(msg.Data))
			}
		}

		defaultKey := natsadapter.AlertSubjects + "|all"
		sub, err := nc.Subscribe(natsadapter.AlertSubjects, relay(domain.FilterAll))
		if err != nil {
			slog.Error("ws default subscribe", "remote", remoteAddr, "error", err)
			return
		}
		subs[defaultKey] = sub

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
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			var subject string
			switch m.Channel {
			case "", "alerts":
				subject = natsadapter.AlertSubjects
			case "created", "deleted":
				subject = natsadapter.AlertSubjectPrefix + m.Channel
			default:
				_ = writeJSON(map[string]string{"error": "unknown channel: " + m.Channel})
				continue
			}

			filter, err := domain.ParseCategoryFilter(m.Category)
			if err != nil {
				_ = writeJSON(map[string]string{"error": err.Error()})
				continue
			}
			key := subject + "|" + filter.String()

			switch m.Action {
			case "subscribe":
				if _, exists := subs[key]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay(filter))
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[key] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject, "category": filter.String()})

			case "unsubscribe":
				if s, exists := subs[key]; exists {
					_ = s.Unsubscribe()
					delete(subs, key)
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
