package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/sharenet/internal/logger"
	notificationmodels "github.com/nikhil/sharenet/internal/models/notifications"
	inviteService "github.com/nikhil/sharenet/internal/service/invite"
	notificationService "github.com/nikhil/sharenet/internal/service/notifications"
)

type NotificationHandler struct {
	Notifications *notificationService.NotificationService
	Invites       *inviteService.InviteService
	Log           *logger.Logger
}

func NewNotificationHandler(notifications *notificationService.NotificationService, invites *inviteService.InviteService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{Notifications: notifications, Invites: invites, Log: log.Named("notification-handler")}
}

type createNotificationRequest struct {
	Message   string `json:"message" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Type      string `json:"type" validate:"omitempty,oneof=message reminder other"`
	TeamID    string `json:"teamId"`
}

type acceptInviteRequest struct {
	TeamID string `json:"teamId" validate:"required"`
}

type rejectInviteRequest struct {
	NotificationID string `json:"notificationId" validate:"required"`
}

func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	_, err := h.Notifications.Create(r.Context(), notificationService.CreateInput{
		Message:   req.Message,
		Recipient: req.Recipient,
		Type:      notificationmodels.Type(req.Type),
		TeamID:    req.TeamID,
	})
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithMsg(w, http.StatusCreated, "Notification created")
}

// List returns the caller's five latest notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	list, err := h.Notifications.ListRecent(r.Context(), user.ID)
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	if list == nil {
		list = []notificationmodels.Notification{}
	}
	respondWithJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if _, err := h.Notifications.MarkRead(r.Context(), mux.Vars(r)["id"], user.ID); err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithMsg(w, http.StatusOK, "Notification marked as read")
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.Notifications.Delete(r.Context(), mux.Vars(r)["id"], user.ID); err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithMsg(w, http.StatusOK, "Notification deleted")
}

func (h *NotificationHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req acceptInviteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if _, err := h.Invites.AcceptInvite(r.Context(), req.TeamID, user.ID); err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithMsg(w, http.StatusOK, "Invite accepted and user added to the team")
}

func (h *NotificationHandler) RejectInvite(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req rejectInviteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.Invites.RejectInvite(r.Context(), req.NotificationID, user.ID); err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithMsg(w, http.StatusOK, "Invite rejected and notification deleted")
}
