package messageService

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/models"
	teammodels "github.com/nikhil/sharenet/internal/models/teams"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
	"github.com/nikhil/sharenet/internal/store/sqlstore/sqlstoretest"
)

func newService(t *testing.T) *MessageService {
	t.Helper()
	st := sqlstoretest.New(t)
	ms := NewMessageService(st, models.NewHub(), logger.Nop())
	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	ms.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	n := 0
	ms.NewID = func() string {
		n++
		return fmt.Sprintf("m-%d", n)
	}

	ctx := context.Background()
	require.NoError(t, st.Users().CreateUser(ctx, &usermodels.User{
		ID: "alice", Email: "a@x.com", PasswordHash: "x", FirstName: "Alice", LastName: "Smith",
		UserType: usermodels.UserTypeUser, ProfileImage: "alice.png", CreatedAt: clock,
	}))
	require.NoError(t, st.Teams().CreateTeam(ctx, &teammodels.Team{
		ID: "team-1", UUID: "uuid-1", Name: "Eng", Creator: "alice",
		Members: []teammodels.Member{{User: "alice", Role: "User"}}, Roles: []string{"User"},
		CreatedAt: clock, UpdatedAt: clock,
	}))
	return ms
}

func TestSendAndHistory(t *testing.T) {
	ms := newService(t)
	ctx := context.Background()

	first, err := ms.SendMessage(ctx, "team-1", "alice", "  hello  ")
	require.NoError(t, err)
	require.Equal(t, "hello", first.Message)
	require.Equal(t, "Alice", first.Sender.FirstName)
	require.Equal(t, "alice.png", first.Sender.ProfileImage)

	_, err = ms.SendMessage(ctx, "team-1", "alice", "second")
	require.NoError(t, err)

	history, err := ms.History(ctx, "team-1", "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "hello", history[0].Message)
	require.Equal(t, "second", history[1].Message)
	require.Equal(t, "Smith", history[1].Sender.LastName)
}

func TestSendMessageRules(t *testing.T) {
	ms := newService(t)
	ctx := context.Background()

	_, err := ms.SendMessage(ctx, "team-1", "alice", "   ")
	require.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = ms.SendMessage(ctx, "team-1", "alice", strings.Repeat("x", MaxMessageLength+1))
	require.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = ms.SendMessage(ctx, "missing", "alice", "hi")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = ms.SendMessage(ctx, "team-1", "mallory", "hi")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = ms.History(ctx, "team-1", "mallory")
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}
