package notificationroutes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/sharenet/internal/handlers"
	"github.com/nikhil/sharenet/internal/middleware"
)

func NotificationRoutes(router *mux.Router, notificationHandler *handlers.NotificationHandler, auth *middleware.Auth) {
	notificationRouter := router.PathPrefix("/notifications").Subrouter()
	notificationRouter.Use(auth.AuthMiddleware, middleware.ResponseWrapperMiddleware)
	notificationRouter.HandleFunc("", notificationHandler.Create).Methods(http.MethodPost)
	notificationRouter.HandleFunc("", notificationHandler.List).Methods(http.MethodGet)
	notificationRouter.HandleFunc("/accept-invite", notificationHandler.AcceptInvite).Methods(http.MethodPost)
	notificationRouter.HandleFunc("/reject-invite", notificationHandler.RejectInvite).Methods(http.MethodPost)
	notificationRouter.HandleFunc("/{id}/read", notificationHandler.MarkRead).Methods(http.MethodPatch)
	notificationRouter.HandleFunc("/{id}", notificationHandler.Delete).Methods(http.MethodDelete)
}
