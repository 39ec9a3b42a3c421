package notificationmodels

import (
	"time"

	"github.com/nikhil/sharenet/internal/apperrors"
)

type Type string

const (
	TypeTeamInvite Type = "team_invite"
	TypeMessage    Type = "message"
	TypeReminder   Type = "reminder"
	TypeOther      Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeTeamInvite, TypeMessage, TypeReminder, TypeOther:
		return true
	}
	return false
}

// Notification is a message addressed to a single recipient.
type Notification struct {
	ID        string    `json:"id" bson:"_id"`
	Message   string    `json:"message" bson:"message"`
	Recipient string    `json:"recipient" bson:"recipient"`
	Read      bool      `json:"read" bson:"read"`
	Type      Type      `json:"type" bson:"type"`
	TeamID    string    `json:"teamId,omitempty" bson:"teamId,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Validate checks the record before it is persisted. TeamID is required for
// team invites and rejected for every other type.
func (n Notification) Validate() error {
	if n.Message == "" {
		return apperrors.Validation("Notification message is required.")
	}
	if n.Recipient == "" {
		return apperrors.Validation("Notification recipient is required.")
	}
	if !n.Type.Valid() {
		return apperrors.Validation("Invalid notification type.")
	}
	if n.Type == TypeTeamInvite && n.TeamID == "" {
		return apperrors.Validation("Team invites require a team id.")
	}
	if n.Type != TypeTeamInvite && n.TeamID != "" {
		return apperrors.Validation("Only team invites carry a team id.")
	}
	return nil
}
