// Package api exposes the server's HTTP surface: the websocket endpoint and
// a health check.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tictacmatch-go/internal/middleware"
	"github.com/mcoot/tictacmatch-go/internal/transport/ws"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	Logger *slog.Logger
	Hub    *ws.Hub
}

// NewRouter creates the HTTP router
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", handleHealth(cfg.Hub)).Methods(http.MethodGet)
	r.HandleFunc("/ws", cfg.Hub.ServeWS)

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	return r
}

func handleHealth(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"clients": hub.ClientCount(),
		})
	}
}
