//go:build integration

package mongostore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nikhil/sharenet/internal/apperrors"
	notificationmodels "github.com/nikhil/sharenet/internal/models/notifications"
	teammodels "github.com/nikhil/sharenet/internal/models/teams"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
	"github.com/nikhil/sharenet/internal/store"
	"github.com/nikhil/sharenet/internal/store/mongostore"
)

func openStore(t *testing.T) *mongostore.Store {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := mongostore.Open(ctx, mongostore.Options{URI: uri, Database: "sharenet_test_" + uuid.NewString()[:8]})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func TestSetUserType(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Users().CreateUser(ctx, &usermodels.User{ID: "a", Email: "a@example.com", FirstName: "A", LastName: "B", UserType: usermodels.UserTypeUser, CreatedAt: time.Now().UTC()}))
	require.NoError(t, s.Users().SetUserType(ctx, "a", usermodels.UserTypeAdmin))
	got, err := s.Users().GetUserByID(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, usermodels.UserTypeAdmin, got.UserType)
	require.ErrorIs(t, s.Users().SetUserType(ctx, "missing", usermodels.UserTypeAdmin), apperrors.ErrNotFound)
}

func TestTeamSublists(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, s.Users().CreateUser(ctx, &usermodels.User{ID: "a", Email: "a@example.com", FirstName: "A", LastName: "B", UserType: usermodels.UserTypeUser, CreatedAt: now}))
	team := &teammodels.Team{
		ID: "t1", UUID: "uuid-t1", Name: "T", Creator: "a",
		Members: []teammodels.Member{{User: "a", Role: "User"}}, Roles: []string{"User"},
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.Teams().CreateTeam(ctx, team))

	teams := s.Teams()
	require.NoError(t, teams.AddMember(ctx, "t1", teammodels.Member{User: "b", Role: "User"}))
	require.ErrorIs(t, teams.AddMember(ctx, "t1", teammodels.Member{User: "b", Role: "User"}), apperrors.ErrConflict)
	require.ErrorIs(t, teams.AddMember(ctx, "missing", teammodels.Member{User: "b"}), apperrors.ErrNotFound)

	require.NoError(t, teams.AddPendingInvite(ctx, "t1", teammodels.PendingInvite{Email: "x@example.com", InvitedAt: now}))
	require.ErrorIs(t, teams.AddPendingInvite(ctx, "t1", teammodels.PendingInvite{Email: "x@example.com", InvitedAt: now}), apperrors.ErrConflict)

	require.NoError(t, teams.AddRole(ctx, "t1", "Designer"))
	require.NoError(t, teams.AddRole(ctx, "t1", "Designer"))
	require.NoError(t, teams.SetMemberRole(ctx, "t1", "b", "Designer"))
	require.NoError(t, teams.RemoveMember(ctx, "t1", "a"))
	require.ErrorIs(t, teams.RemoveMember(ctx, "t1", "a"), apperrors.ErrNotFound)

	got, err := teams.GetTeamByUUID(ctx, "uuid-t1")
	require.NoError(t, err)
	require.Equal(t, []teammodels.Member{{User: "b", Role: "Designer"}}, got.Members)
	require.Equal(t, []string{"User", "Designer"}, got.Roles)
	require.Len(t, got.PendingInvites, 1)

	views, err := teams.ListMemberViews(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "Unknown Member", views[0].Name)
}

func TestNotificationCleanup(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	ns := s.Notifications()

	require.NoError(t, ns.CreateNotification(ctx, &notificationmodels.Notification{ID: "n1", Message: "m", Recipient: "u", Type: notificationmodels.TypeTeamInvite, TeamID: "t1", CreatedAt: now}))
	require.NoError(t, ns.CreateNotification(ctx, &notificationmodels.Notification{ID: "n2", Message: "m", Recipient: "u", Type: notificationmodels.TypeMessage, CreatedAt: now.Add(time.Second)}))

	recent, err := ns.ListRecentNotifications(ctx, "u", 5)
	require.NoError(t, err)
	require.Equal(t, "n2", recent[0].ID)

	n, err := ns.DeleteNotifications(ctx, store.NotificationFilter{Recipient: "u", TeamID: "t1", Type: notificationmodels.TypeTeamInvite})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
