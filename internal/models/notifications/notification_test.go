package notificationmodels

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikhil/sharenet/internal/apperrors"
)

func TestValidateTeamIDOnlyForInvites(t *testing.T) {
	invite := Notification{Message: "join", Recipient: "u1", Type: TypeTeamInvite}
	require.ErrorIs(t, invite.Validate(), apperrors.ErrValidation)

	invite.TeamID = "t1"
	require.NoError(t, invite.Validate())

	reminder := Notification{Message: "ping", Recipient: "u1", Type: TypeReminder, TeamID: "t1"}
	require.ErrorIs(t, reminder.Validate(), apperrors.ErrValidation)

	reminder.TeamID = ""
	require.NoError(t, reminder.Validate())
}

func TestValidateRejectsUnknownType(t *testing.T) {
	n := Notification{Message: "x", Recipient: "u1", Type: "broadcast"}
	require.ErrorIs(t, n.Validate(), apperrors.ErrValidation)
}
