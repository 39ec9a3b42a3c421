package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/sharenet/internal/handlers"
	"github.com/nikhil/sharenet/internal/middleware"
)

// RegisterWebSocketRoutes registers all WebSocket related routes
func RegisterWebSocketRoutes(router *mux.Router, wsHandler *handlers.WebSocketHandler, auth *middleware.Auth) {
	// WebSocket endpoint with authentication via query parameter
	router.Handle("/ws", auth.WebSocketAuthMiddleware(http.HandlerFunc(wsHandler.HandleWebSocket))).Methods(http.MethodGet)
}
