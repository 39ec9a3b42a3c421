package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/sharenet/internal/logger"
	profileService "github.com/nikhil/sharenet/internal/service/users"
	"github.com/nikhil/sharenet/internal/store"
)

type ProfileHandler struct {
	Service *profileService.ProfileService
	Log     *logger.Logger
}

func NewProfileHandler(service *profileService.ProfileService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{Service: service, Log: log.Named("profile-handler")}
}

type updateProfileRequest struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	ProfileImage string `json:"profileImage" validate:"omitempty,url"`
}

func (h *ProfileHandler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, err := h.Service.GetUserProfile(r.Context(), user.ID)
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateUserProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	profile, err := h.Service.UpdateUserProfile(r.Context(), user.ID, store.ProfileUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// PromoteUser makes the user named in the path an admin.
func (h *ProfileHandler) PromoteUser(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Service.PromoteToAdmin(r.Context(), mux.Vars(r)["userId"]); err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithMsg(w, http.StatusOK, "User promoted to admin")
}

// ListUsers backs the admin user listing.
func (h *ProfileHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}
