package chatroutes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/sharenet/internal/handlers"
	"github.com/nikhil/sharenet/internal/middleware"
)

func ChatRoutes(router *mux.Router, chatHandler *handlers.ChatHandler, auth *middleware.Auth) {
	chatRouter := router.PathPrefix("/chat").Subrouter()
	chatRouter.Use(auth.AuthMiddleware, middleware.ResponseWrapperMiddleware)
	chatRouter.HandleFunc("", chatHandler.SendMessage).Methods(http.MethodPost)
	chatRouter.HandleFunc("/{teamId}", chatHandler.History).Methods(http.MethodGet)
}
