package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/sharenet/internal/logger"
	teammodels "github.com/nikhil/sharenet/internal/models/teams"
	inviteService "github.com/nikhil/sharenet/internal/service/invite"
	teamService "github.com/nikhil/sharenet/internal/service/team"
)

// TeamHandler serves /teams. Required-field checks live in the services so
// their messages stay the same for every caller.
type TeamHandler struct {
	Teams   *teamService.TeamService
	Invites *inviteService.InviteService
	Log     *logger.Logger
}

func NewTeamHandler(teams *teamService.TeamService, invites *inviteService.InviteService, log *logger.Logger) *TeamHandler {
	return &TeamHandler{Teams: teams, Invites: invites, Log: log.Named("team-handler")}
}

type teamNameRequest struct {
	Name string `json:"name"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req teamNameRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	team, err := h.Teams.CreateTeam(r.Context(), user.ID, req.Name)
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, team)
}

func (h *TeamHandler) GetUserTeams(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	teams, err := h.Teams.GetUserTeams(r.Context(), user.ID)
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	if teams == nil {
		teams = []teammodels.Team{}
	}
	respondWithJSON(w, http.StatusOK, teams)
}

func (h *TeamHandler) GetTeamByUUID(w http.ResponseWriter, r *http.Request) {
	team, err := h.Teams.GetTeamByUUID(r.Context(), mux.Vars(r)["uuid"])
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) RenameTeam(w http.ResponseWriter, r *http.Request) {
	var req teamNameRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	team, err := h.Teams.RenameTeam(r.Context(), mux.Vars(r)["id"], req.Name)
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"msg":  "Team name updated successfully",
		"team": team,
	})
}

func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := h.Teams.DeleteTeam(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithMsg(w, http.StatusOK, "Team deleted successfully")
}

// InviteMember sends an invitation. The path id is the team's external uuid.
func (h *TeamHandler) InviteMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req inviteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.Invites.SendInvite(r.Context(), mux.Vars(r)["id"], user.ID, req.Email); err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithMsg(w, http.StatusOK, "Invitation sent and notification created successfully")
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Teams.RemoveMember(r.Context(), vars["id"], vars["userId"]); err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithMsg(w, http.StatusOK, "Member removed successfully")
}

func (h *TeamHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Teams.GetMembers(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	if members == nil {
		members = []teammodels.MemberView{}
	}
	respondWithJSON(w, http.StatusOK, members)
}

func (h *TeamHandler) AddRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	team, err := h.Teams.AddRole(r.Context(), mux.Vars(r)["id"], req.Role)
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"msg":  "Role added successfully",
		"team": team,
	})
}

func (h *TeamHandler) GetRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Teams.GetRoles(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}

func (h *TeamHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	member, err := h.Teams.AssignRole(r.Context(), vars["teamId"], vars["userId"], req.Role)
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"msg":           "Role updated successfully",
		"updatedMember": member,
	})
}
