package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/ripplechat/ripple/internal/service"
	"nhooyr.io/websocket"
)

// Handler upgrades HTTP requests to websocket connections and runs the
// per-connection pumps.
type Handler struct {
	hub  *Hub
	auth *service.AuthService
}

func NewHandler(hub *Hub, auth *service.AuthService) *Handler {
	return &Handler{hub: hub, auth: auth}
}

// ServeWS accepts the socket first and authenticates after the upgrade, so
// an auth failure can be reported as a socketError event instead of a bare
// HTTP status. Unauthenticated connections are never registered.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("ws: accept: %v", err)
		return
	}

	user, err := h.auth.VerifyToken(r.Context(), tokenFrom(r))
	if err != nil {
		rejectSocket(r.Context(), conn, "authentication failed")
		return
	}

	client := newClient(h.hub, conn, user)
	h.hub.register <- client

	if event, err := NewEvent(EventConnected, ConnectedPayload{Message: "connected"}); err == nil {
		if data, err := json.Marshal(event); err == nil {
			client.trySend(data)
		}
	}

	go client.WritePump(r.Context())
	client.ReadPump(r.Context())
}

// tokenFrom pulls the JWT from the token cookie, falling back to the
// token query parameter for clients that cannot set cookies.
func tokenFrom(r *http.Request) string {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

func rejectSocket(ctx context.Context, conn *websocket.Conn, reason string) {
	if event, err := NewEvent(EventSocketError, ErrorPayload{Message: reason}); err == nil {
		if data, err := json.Marshal(event); err == nil {
			conn.Write(ctx, websocket.MessageText, data)
		}
	}
	conn.Close(websocket.StatusPolicyViolation, reason)
}
