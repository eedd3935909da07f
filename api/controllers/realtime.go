package controllers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/coldrackhq/coldrack-backend/internal/realtime"
	"github.com/coldrackhq/coldrack-backend/pkg/logger"
)

func changeStreamUpgrader(allowedOrigins []string, logg *logger.Logger) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no origin.
				return true
			}
			for _, allowed := range allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "origin", origin), "realtime.origin_rejected")
			}
			return false
		},
	}
}

// ChangeStream upgrades the request to a websocket and streams change
// notifications until the client disconnects.
func ChangeStream(hub *realtime.Hub, allowedOrigins []string, logg *logger.Logger) http.HandlerFunc {
	upgrader := changeStreamUpgrader(allowedOrigins, logg)
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			if logg != nil {
				logg.Warn(r.Context(), "realtime.upgrade_failed")
			}
			return
		}

		client := hub.Subscribe()
		go client.WritePump(r.Context(), conn)

		// Read loop only services control frames and detects disconnect.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unsubscribe(client)
	}
}
