package authRoute

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/sharenet/internal/handlers"
	"github.com/nikhil/sharenet/internal/middleware"
)

// RegisterAuthRoutes mounts the public account endpoints behind the per-IP
// limiter. A nil limiter disables limiting.
func RegisterAuthRoutes(router *mux.Router, authHandler *handlers.AuthHandler, limiter *middleware.RateLimiter) {
	// Public routes without auth middleware
	publicRouter := router.PathPrefix("/auth").Subrouter()
	publicRouter.Use(limiter.Middleware, middleware.ResponseWrapperMiddleware)
	publicRouter.HandleFunc("/register", authHandler.Signup).Methods(http.MethodPost)
	publicRouter.HandleFunc("/signup", authHandler.Signup).Methods(http.MethodPost)
	publicRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
}
