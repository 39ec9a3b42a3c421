package teamroutes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nikhil/sharenet/internal/handlers"
	"github.com/nikhil/sharenet/internal/middleware"
)

func TeamRoutes(router *mux.Router, teamHandler *handlers.TeamHandler, auth *middleware.Auth) {
	teamRouter := router.PathPrefix("/teams").Subrouter()
	teamRouter.Use(auth.AuthMiddleware, middleware.ResponseWrapperMiddleware)
	teamRouter.HandleFunc("", teamHandler.CreateTeam).Methods(http.MethodPost)
	teamRouter.HandleFunc("", teamHandler.GetUserTeams).Methods(http.MethodGet)
	teamRouter.HandleFunc("/{uuid}", teamHandler.GetTeamByUUID).Methods(http.MethodGet)
	teamRouter.HandleFunc("/{id}", teamHandler.DeleteTeam).Methods(http.MethodDelete)
	teamRouter.HandleFunc("/{id}/name", teamHandler.RenameTeam).Methods(http.MethodPatch)

	// POST members takes the team uuid, every other route the internal id.
	teamRouter.HandleFunc("/{id}/members", teamHandler.InviteMember).Methods(http.MethodPost)
	teamRouter.HandleFunc("/{id}/members", teamHandler.GetMembers).Methods(http.MethodGet)
	teamRouter.HandleFunc("/{id}/members/{userId}", teamHandler.RemoveMember).Methods(http.MethodDelete)
	teamRouter.HandleFunc("/{teamId}/members/{userId}/role", teamHandler.AssignRole).Methods(http.MethodPatch)

	teamRouter.HandleFunc("/{id}/roles", teamHandler.AddRole).Methods(http.MethodPatch)
	teamRouter.HandleFunc("/{id}/roles", teamHandler.GetRoles).Methods(http.MethodGet)
}
