// Package messageService stores team chat and relays new lines to the
// team's open sockets.
package messageService

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/models"
	chatmodels "github.com/nikhil/sharenet/internal/models/chats"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
	"github.com/nikhil/sharenet/internal/store"
)

// MaxMessageLength bounds a single chat line.
const MaxMessageLength = 2000

type MessageService struct {
	Store store.Store
	Hub   models.Pusher
	Log   *logger.Logger

	Now   func() time.Time
	NewID func() string
}

func NewMessageService(st store.Store, hub models.Pusher, log *logger.Logger) *MessageService {
	return &MessageService{
		Store: st,
		Hub:   hub,
		Log:   log.Named("message-service"),
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
}

// SendMessage posts a chat line from a team member and broadcasts it to the
// team with the sender resolved.
func (ms *MessageService) SendMessage(ctx context.Context, teamID, senderID, text string) (*chatmodels.MessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Validation("Message is required.")
	}
	if len(text) > MaxMessageLength {
		return nil, apperrors.Validation("Message is too long.")
	}
	if err := ms.requireMember(ctx, teamID, senderID); err != nil {
		return nil, err
	}

	msg := &chatmodels.Message{
		ID:        ms.NewID(),
		TeamID:    teamID,
		Sender:    senderID,
		Message:   text,
		CreatedAt: ms.Now(),
	}
	if err := ms.Store.Chats().CreateChatMessage(ctx, msg); err != nil {
		return nil, err
	}

	senders, err := ms.Store.Users().GetUsersByIDs(ctx, []string{senderID})
	if err != nil {
		return nil, err
	}
	view := render(*msg, senders)
	ms.Hub.BroadcastToTeam(teamID, models.Event{
		Type:    models.EventChatMessage,
		TeamID:  teamID,
		UserID:  senderID,
		Payload: view,
	})
	return &view, nil
}

// History returns the team's chat oldest first. Only members may read it.
func (ms *MessageService) History(ctx context.Context, teamID, userID string) ([]chatmodels.MessageView, error) {
	if err := ms.requireMember(ctx, teamID, userID); err != nil {
		return nil, err
	}
	msgs, err := ms.Store.Chats().ListChatMessages(ctx, teamID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(msgs))
	seen := make(map[string]bool, len(msgs))
	for _, m := range msgs {
		if !seen[m.Sender] {
			seen[m.Sender] = true
			ids = append(ids, m.Sender)
		}
	}
	senders, err := ms.Store.Users().GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]chatmodels.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, render(m, senders))
	}
	return views, nil
}

func (ms *MessageService) requireMember(ctx context.Context, teamID, userID string) error {
	team, err := ms.Store.Teams().GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	if !team.HasMember(userID) {
		ms.Log.Warn("Chat access by non-member", "team_id", teamID, "user_id", userID)
		return apperrors.Forbidden("You are not a member of this team")
	}
	return nil
}

func render(m chatmodels.Message, senders map[string]usermodels.User) chatmodels.MessageView {
	sender := chatmodels.Sender{ID: m.Sender}
	if u, ok := senders[m.Sender]; ok {
		sender.FirstName = u.FirstName
		sender.LastName = u.LastName
		sender.ProfileImage = u.ProfileImage
	}
	return chatmodels.MessageView{
		ID:        m.ID,
		TeamID:    m.TeamID,
		Sender:    sender,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}
}
