package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/models"
)

// MembershipChecker tells whether a user may listen to a team's events.
type MembershipChecker interface {
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub      *models.Hub
	members  MembershipChecker
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewWebSocketHandler creates a new WebSocket handler. An empty origin list,
// or one containing "*", accepts every origin.
func NewWebSocketHandler(hub *models.Hub, members MembershipChecker, allowedOrigins []string, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:     hub,
		members: members,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log.Named("websocket-handler"),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(set) == 0 || origin == "" || set[origin]
	}
}

// HandleWebSocket upgrades the connection and registers it with the hub.
// Without team_id the socket only receives the caller's own notifications.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	teamID := r.URL.Query().Get("team_id")
	if teamID != "" {
		member, err := h.members.IsMember(r.Context(), teamID, user.ID)
		if err != nil {
			respondWithAppError(w, r, h.log, err)
			return
		}
		if !member {
			respondWithError(w, http.StatusForbidden, "You are not a member of this team")
			return
		}
	}

	// Upgrade the HTTP connection to a WebSocket connection
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithContext(r.Context()).Warn("Error upgrading connection", "error", err)
		return
	}

	client := models.NewClient(h.hub, conn, user.ID, teamID)
	if !h.hub.Join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
