package userRoutes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/sharenet/internal/handlers"
	"github.com/nikhil/sharenet/internal/middleware"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
)

func UserProfileRoutes(router *mux.Router, profileHandler *handlers.ProfileHandler, auth *middleware.Auth) {
	// Protected routes requiring authentication
	protectedRouter := router.PathPrefix("/user").Subrouter()
	protectedRouter.Use(auth.AuthMiddleware, middleware.ResponseWrapperMiddleware)

	// User profile routes
	protectedRouter.HandleFunc("/profile", profileHandler.GetUserProfile).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/profile", profileHandler.UpdateUserProfile).Methods(http.MethodPut)

	// Owners may read the user list, only admins may promote.
	adminRouter := router.PathPrefix("/admin").Subrouter()
	adminRouter.Use(auth.AuthMiddleware, middleware.ResponseWrapperMiddleware)
	adminRouter.Handle("/users", middleware.RequireUserType(usermodels.UserTypeAdmin, usermodels.UserTypeOwner)(http.HandlerFunc(profileHandler.ListUsers))).Methods(http.MethodGet)
	adminRouter.Handle("/promote/{userId}", middleware.RequireAdmin(http.HandlerFunc(profileHandler.PromoteUser))).Methods(http.MethodPost)
}
