package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/lgatracker/internal/pkg/metrics"
)

// wsMessage is sent by clients. Actions: "progress", "toggle" (with id), "status".
type wsMessage struct {
	Action string `json:"action"`
	ID     string `json:"id"`
}

// WebSocketHandler streams tracker events to connected clients and accepts
// toggles over the same connection.
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		log := slog.Default().With("remote", remoteAddr)
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var mu sync.Mutex
		writeJSON := func(v any) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// Initial snapshot so the client can render without a REST round trip.
		_ = writeJSON(map[string]any{"kind": "progress", "progress": progressView(deps.Tracker)})

		events := deps.Tracker.Subscribe(ctx, 32)
		go func() {
			for ev := range events {
				if err := writeJSON(ev); err != nil {
					cancel()
					return
				}
			}
		}()

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
				case <-ctx.Done():
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

			switch m.Action {
			case "progress":
				_ = writeJSON(map[string]any{"kind": "progress", "progress": progressView(deps.Tracker)})
			case "status":
				_ = writeJSON(map[string]any{"kind": "status", "status": deps.Tracker.Registry().Status()})
			case "toggle":
				id, err := strconv.ParseInt(m.ID, 10, 64)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "invalid region id: " + m.ID})
					continue
				}
				// The resulting change reaches this client through the subscription.
				if _, err := deps.Tracker.Toggle(ctx, id); err != nil {
					_ = writeJSON(map[string]string{"error": err.Error()})
				}
			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		log.Info("ws client disconnected")
	}
}
