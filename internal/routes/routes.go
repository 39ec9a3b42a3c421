package routes

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/sharenet/internal/handlers"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/middleware"
	"github.com/nikhil/sharenet/internal/models"
	authRoute "github.com/nikhil/sharenet/internal/routes/Auth"
	chatroutes "github.com/nikhil/sharenet/internal/routes/ChatRoutes"
	notificationroutes "github.com/nikhil/sharenet/internal/routes/NotificationRoutes"
	teamroutes "github.com/nikhil/sharenet/internal/routes/TeamRoutes"
	userRoutes "github.com/nikhil/sharenet/internal/routes/user"
	services "github.com/nikhil/sharenet/internal/service/auth"
	inviteService "github.com/nikhil/sharenet/internal/service/invite"
	messageService "github.com/nikhil/sharenet/internal/service/messages"
	notificationService "github.com/nikhil/sharenet/internal/service/notifications"
	teamService "github.com/nikhil/sharenet/internal/service/team"
	profileService "github.com/nikhil/sharenet/internal/service/users"
	"github.com/nikhil/sharenet/internal/store"
)

// Dependencies are the services the HTTP surface is built from.
type Dependencies struct {
	Store         store.Store
	Hub           *models.Hub
	Auth          *services.AuthService
	Profiles      *profileService.ProfileService
	Teams         *teamService.TeamService
	Invites       *inviteService.InviteService
	Notifications *notificationService.NotificationService
	Messages      *messageService.MessageService
	Log           *logger.Logger

	// RateLimiter guards /auth. Nil disables it.
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

type registry struct {
	auth          *middleware.Auth
	authH         *handlers.AuthHandler
	profileH      *handlers.ProfileHandler
	teamH         *handlers.TeamHandler
	notificationH *handlers.NotificationHandler
	chatH         *handlers.ChatHandler
	wsH           *handlers.WebSocketHandler
	healthH       *handlers.HealthHandler
	limiter       *middleware.RateLimiter
}

// List of all route registration functions
var routeModules = []func(*mux.Router, *registry){
	func(r *mux.Router, reg *registry) { authRoute.RegisterAuthRoutes(r, reg.authH, reg.limiter) },
	func(r *mux.Router, reg *registry) { userRoutes.UserProfileRoutes(r, reg.profileH, reg.auth) },
	func(r *mux.Router, reg *registry) { teamroutes.TeamRoutes(r, reg.teamH, reg.auth) },
	func(r *mux.Router, reg *registry) { notificationroutes.NotificationRoutes(r, reg.notificationH, reg.auth) },
	func(r *mux.Router, reg *registry) { chatroutes.ChatRoutes(r, reg.chatH, reg.auth) },
	func(r *mux.Router, reg *registry) { RegisterWebSocketRoutes(r, reg.wsH, reg.auth) },
}

// Register all routes dynamically
func RegisterAllRoutes(deps Dependencies) *mux.Router {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	reg := &registry{
		auth:          middleware.NewAuth(deps.Auth, log),
		authH:         handlers.NewAuthHandler(deps.Auth, log),
		profileH:      handlers.NewProfileHandler(deps.Profiles, log),
		teamH:         handlers.NewTeamHandler(deps.Teams, deps.Invites, log),
		notificationH: handlers.NewNotificationHandler(deps.Notifications, deps.Invites, log),
		chatH:         handlers.NewChatHandler(deps.Messages, log),
		wsH:           handlers.NewWebSocketHandler(deps.Hub, deps.Teams, deps.AllowedOrigins, log),
		healthH:       handlers.NewHealthHandler(deps.Store, log),
		limiter:       deps.RateLimiter,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", reg.healthH.Health).Methods(http.MethodGet)
	for _, register := range routeModules {
		register(router, reg)
	}
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Route not found"})
	})

	return router
}
