package inviteService

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/cache"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/mailer"
	"github.com/nikhil/sharenet/internal/models"
	notificationmodels "github.com/nikhil/sharenet/internal/models/notifications"
	teammodels "github.com/nikhil/sharenet/internal/models/teams"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
	"github.com/nikhil/sharenet/internal/store"
	"github.com/nikhil/sharenet/internal/store/sqlstore/sqlstoretest"
)

type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) messages() []mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mailer.Message(nil), o.sent...)
}

type fixture struct {
	svc   *InviteService
	store store.Store
	mail  *outbox
	team  *teammodels.Team
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := sqlstoretest.New(t)
	mail := &outbox{}
	svc := NewInviteService(st, cache.NewMemory(), mail, models.NewHub(), logger.Nop())
	var (
		mu    sync.Mutex
		clock = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		n     int
	)
	svc.Now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	svc.NewID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("n-%d", n)
	}

	ctx := context.Background()
	for _, u := range []usermodels.User{
		{ID: "alice", Email: "a@x.com", FirstName: "Alice", LastName: "Smith"},
		{ID: "bob", Email: "b@x.com", FirstName: "Bob", LastName: "Jones"},
	} {
		u := u
		u.PasswordHash = "x"
		u.UserType = usermodels.UserTypeUser
		u.CreatedAt = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		require.NoError(t, st.Users().CreateUser(ctx, &u))
	}
	team := &teammodels.Team{
		ID: "team-1", UUID: "uuid-1", Name: "Eng", Creator: "alice",
		Members: []teammodels.Member{{User: "alice", Role: teammodels.DefaultRole}},
		Roles:   []string{teammodels.DefaultRole},
		CreatedAt: svc.Now(), UpdatedAt: svc.Now(),
	}
	require.NoError(t, st.Teams().CreateTeam(ctx, team))
	return &fixture{svc: svc, store: st, mail: mail, team: team}
}

func (f *fixture) invites(t *testing.T, recipient string) []notificationmodels.Notification {
	t.Helper()
	list, err := f.store.Notifications().ListRecentNotifications(context.Background(), recipient, 50)
	require.NoError(t, err)
	return list
}

func TestValidateEmail(t *testing.T) {
	require.NoError(t, ValidateEmail("b@x.com"))
	require.NoError(t, ValidateEmail("first.last-1@mail.example.org"))
	for _, bad := range []string{"", "   ", "no-at-sign", "a@b", "a@b.c", "a+tag@x.com", "a@x.toolongtld"} {
		err := ValidateEmail(bad)
		require.ErrorIs(t, err, apperrors.ErrValidation, bad)
	}
	require.EqualError(t, ValidateEmail(""), "Email is required and cannot be empty.")
	require.EqualError(t, ValidateEmail("nope"), "Invalid email address.")
}

func TestInviteAcceptScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendInvite(ctx, "uuid-1", "alice", "b@x.com"))
	f.svc.Wait()

	notes := f.invites(t, "bob")
	require.Len(t, notes, 1)
	require.Equal(t, notificationmodels.TypeTeamInvite, notes[0].Type)
	require.Equal(t, "team-1", notes[0].TeamID)
	require.False(t, notes[0].Read)
	require.Equal(t, `Alice Smith has invited you to join the team "Eng".`, notes[0].Message)

	sent := f.mail.messages()
	require.Len(t, sent, 1)
	require.Equal(t, "b@x.com", sent[0].To)
	require.Equal(t, "You've been invited to join the team: Eng", sent[0].Subject)

	team, err := f.svc.AcceptInvite(ctx, "team-1", "bob")
	require.NoError(t, err)
	require.Equal(t, []teammodels.Member{{User: "alice", Role: "User"}, {User: "bob", Role: "User"}}, team.Members)

	stored, err := f.store.Teams().GetTeamByID(ctx, "team-1")
	require.NoError(t, err)
	require.Equal(t, team.Members, stored.Members)
	require.Empty(t, f.invites(t, "bob"))
	// the ledger entry survives acceptance
	require.True(t, stored.HasPendingInvite("b@x.com"))
}

func TestDuplicateInviteKeepsOneLedgerEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendInvite(ctx, "uuid-1", "alice", "b@x.com"))
	err := f.svc.SendInvite(ctx, "uuid-1", "alice", "b@x.com")
	require.ErrorIs(t, err, apperrors.ErrDuplicateInvite)
	f.svc.Wait()

	team, err := f.store.Teams().GetTeamByID(ctx, "team-1")
	require.NoError(t, err)
	require.Len(t, team.PendingInvites, 1)
	require.Equal(t, "b@x.com", team.PendingInvites[0].Email)
	require.Len(t, f.invites(t, "bob"), 1)
}

func TestInviteEmailIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendInvite(ctx, "uuid-1", "alice", " B@X.com "))
	f.svc.Wait()

	team, err := f.store.Teams().GetTeamByID(ctx, "team-1")
	require.NoError(t, err)
	require.Len(t, team.PendingInvites, 1)
	require.Equal(t, "b@x.com", team.PendingInvites[0].Email)
	require.Len(t, f.invites(t, "bob"), 1)
	require.Equal(t, "b@x.com", f.mail.messages()[0].To)

	err = f.svc.SendInvite(ctx, "uuid-1", "alice", "b@x.com")
	require.ErrorIs(t, err, apperrors.ErrDuplicateInvite)
	err = f.svc.SendInvite(ctx, "uuid-1", "alice", "B@x.COM")
	require.ErrorIs(t, err, apperrors.ErrDuplicateInvite)
}

func TestConcurrentInvitesRecordOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.svc.SendInvite(ctx, "uuid-1", "alice", "b@x.com")
		}(i)
	}
	wg.Wait()
	f.svc.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, apperrors.ErrDuplicateInvite)
	}
	require.Equal(t, 1, ok)

	team, err := f.store.Teams().GetTeamByID(ctx, "team-1")
	require.NoError(t, err)
	require.Len(t, team.PendingInvites, 1)
	require.Len(t, f.invites(t, "bob"), 1)
}

func TestSendInviteFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.SendInvite(ctx, "uuid-1", "alice", "")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	err = f.svc.SendInvite(ctx, "uuid-1", "alice", "not an email")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	err = f.svc.SendInvite(ctx, "uuid-missing", "alice", "b@x.com")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.EqualError(t, err, "Team not found")

	err = f.svc.SendInvite(ctx, "uuid-1", "alice", "ghost@x.com")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	require.EqualError(t, err, "User with the given email not found")

	f.svc.Wait()
	require.Empty(t, f.mail.messages())
	team, err := f.store.Teams().GetTeamByID(ctx, "team-1")
	require.NoError(t, err)
	require.Empty(t, team.PendingInvites)
}

func TestMailFailureKeepsInvite(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("relay down")
	ctx := context.Background()

	require.NoError(t, f.svc.SendInvite(ctx, "uuid-1", "alice", "b@x.com"))
	f.svc.Wait()

	team, err := f.store.Teams().GetTeamByID(ctx, "team-1")
	require.NoError(t, err)
	require.True(t, team.HasPendingInvite("b@x.com"))
	require.Len(t, f.invites(t, "bob"), 1)
}

func TestInviterNameFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendInvite(ctx, "uuid-1", "unknown-user", "b@x.com"))
	f.svc.Wait()
	notes := f.invites(t, "bob")
	require.Len(t, notes, 1)
	require.Equal(t, `Team Owner has invited you to join the team "Eng".`, notes[0].Message)
}

func TestAcceptInviteFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AcceptInvite(ctx, "missing", "bob")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.AcceptInvite(ctx, "team-1", "alice")
	require.ErrorIs(t, err, apperrors.ErrAlreadyMember)
	require.EqualError(t, err, "You are already a member of this team")

	_, err = f.svc.AcceptInvite(ctx, "team-1", "bob")
	require.NoError(t, err)
	_, err = f.svc.AcceptInvite(ctx, "team-1", "bob")
	require.ErrorIs(t, err, apperrors.ErrAlreadyMember)

	team, err := f.store.Teams().GetTeamByID(ctx, "team-1")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, team.MemberIDs())
}

func TestAcceptClearsOnlyThatTeamsInvites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := &teammodels.Team{
		ID: "team-2", UUID: "uuid-2", Name: "Ops", Creator: "alice",
		Members: []teammodels.Member{{User: "alice", Role: "User"}}, Roles: []string{"User"},
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.Teams().CreateTeam(ctx, other))

	require.NoError(t, f.svc.SendInvite(ctx, "uuid-1", "alice", "b@x.com"))
	require.NoError(t, f.svc.SendInvite(ctx, "uuid-2", "alice", "b@x.com"))
	f.svc.Wait()
	require.Len(t, f.invites(t, "bob"), 2)

	_, err := f.svc.AcceptInvite(ctx, "team-1", "bob")
	require.NoError(t, err)
	left := f.invites(t, "bob")
	require.Len(t, left, 1)
	require.Equal(t, "team-2", left[0].TeamID)
}

func TestRejectInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendInvite(ctx, "uuid-1", "alice", "b@x.com"))
	f.svc.Wait()
	notes := f.invites(t, "bob")
	require.Len(t, notes, 1)

	require.NoError(t, f.svc.RejectInvite(ctx, notes[0].ID, "bob"))
	require.Empty(t, f.invites(t, "bob"))

	team, err := f.store.Teams().GetTeamByID(ctx, "team-1")
	require.NoError(t, err)
	require.False(t, team.HasMember("bob"))
	require.True(t, team.HasPendingInvite("b@x.com"))

	err = f.svc.RejectInvite(ctx, notes[0].ID, "bob")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	// the ledger still blocks a second invitation
	err = f.svc.SendInvite(ctx, "uuid-1", "alice", "b@x.com")
	require.ErrorIs(t, err, apperrors.ErrDuplicateInvite)
}

func TestRejectInviteWrongType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Notifications().CreateNotification(ctx, &notificationmodels.Notification{
		ID: "plain", Message: "hello", Recipient: "bob", Type: notificationmodels.TypeMessage, CreatedAt: time.Now().UTC(),
	}))

	err := f.svc.RejectInvite(ctx, "plain", "bob")
	require.ErrorIs(t, err, apperrors.ErrInvalidType)
	require.EqualError(t, err, "Not a team invite")
	require.Len(t, f.invites(t, "bob"), 1)
}
