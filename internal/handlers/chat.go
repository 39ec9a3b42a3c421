package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/sharenet/internal/logger"
	messageService "github.com/nikhil/sharenet/internal/service/messages"
)

type ChatHandler struct {
	Service *messageService.MessageService
	Log     *logger.Logger
}

func NewChatHandler(service *messageService.MessageService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{Service: service, Log: log.Named("chat-handler")}
}

type chatRequest struct {
	TeamID  string `json:"teamId" validate:"required"`
	Message string `json:"message"`
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req chatRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	view, err := h.Service.SendMessage(r.Context(), req.TeamID, user.ID, req.Message)
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, view)
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	views, err := h.Service.History(r.Context(), mux.Vars(r)["teamId"], user.ID)
	if err != nil {
		respondWithAppError(w, r, h.Log, err)
		return
	}
	respondWithJSON(w, http.StatusOK, views)
}
