// Package inviteService runs the team invitation lifecycle: send, accept and
// reject. Ledger and notification writes for one call share a transaction;
// email delivery happens after commit and never undoes them.
package inviteService

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/cache"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/mailer"
	"github.com/nikhil/sharenet/internal/models"
	notificationmodels "github.com/nikhil/sharenet/internal/models/notifications"
	teammodels "github.com/nikhil/sharenet/internal/models/teams"
	"github.com/nikhil/sharenet/internal/store"
)

var validEmail = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,6}$`)

// DefaultInviterName is used when the inviter has no usable name.
const DefaultInviterName = "Team Owner"

// InviteService handles invite-related operations
type InviteService struct {
	Store  store.Store
	Cache  cache.TeamCache
	Mailer mailer.Mailer
	Hub    models.Pusher
	Log    *logger.Logger

	Now   func() time.Time
	NewID func() string

	mail sync.WaitGroup
}

// NewInviteService wires the service with the system clock and uuid ids.
func NewInviteService(st store.Store, c cache.TeamCache, m mailer.Mailer, hub models.Pusher, log *logger.Logger) *InviteService {
	return &InviteService{
		Store:  st,
		Cache:  c,
		Mailer: m,
		Hub:    hub,
		Log:    log.Named("invite-service"),
		Now:    func() time.Time { return time.Now().UTC() },
		NewID:  uuid.NewString,
	}
}

// ValidateEmail applies the invitation address rules.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return apperrors.Validation("Email is required and cannot be empty.")
	}
	if !validEmail.MatchString(email) {
		return apperrors.Validation("Invalid email address.")
	}
	return nil
}

// SendInvite records an invitation for email on the team with the given
// external uuid, notifies the invited user and emails them. The address is
// lowercased the same way signup stores it.
func (s *InviteService) SendInvite(ctx context.Context, teamUUID, inviterID, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateEmail(email); err != nil {
		return err
	}

	team, err := s.Store.Teams().GetTeamByUUID(ctx, teamUUID)
	if err != nil {
		return err
	}
	if team.HasPendingInvite(email) {
		return apperrors.DuplicateInvite("This email has already been invited.")
	}

	recipient, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound("User with the given email not found")
	}
	if err != nil {
		return err
	}

	inviterName := s.inviterName(ctx, inviterID)
	now := s.Now()
	notification := &notificationmodels.Notification{
		ID:        s.NewID(),
		Message:   fmt.Sprintf("%s has invited you to join the team %q.", inviterName, team.Name),
		Recipient: recipient.ID,
		Type:      notificationmodels.TypeTeamInvite,
		TeamID:    team.ID,
		CreatedAt: now,
	}
	if err := notification.Validate(); err != nil {
		return err
	}

	err = s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		err := tx.Teams().AddPendingInvite(ctx, team.ID, teammodels.PendingInvite{Email: email, InvitedAt: now})
		if errors.Is(err, apperrors.ErrConflict) {
			return apperrors.DuplicateInvite("This email has already been invited.")
		}
		if err != nil {
			return err
		}
		return tx.Notifications().CreateNotification(ctx, notification)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, team.MemberIDs()...)
	s.Hub.PushToUser(recipient.ID, models.Event{
		Type:    models.EventNotification,
		TeamID:  team.ID,
		UserID:  recipient.ID,
		Payload: notification,
	})
	s.Log.Audit("Team invite sent", "team_id", team.ID, "inviter_id", inviterID, "recipient_id", recipient.ID)

	s.sendMail(ctx, mailer.Invitation(email, team.Name, inviterName))
	return nil
}

// AcceptInvite adds the acting user to the team with the default role and
// clears their team-invite notifications for it. The pending invite ledger
// entry is kept.
func (s *InviteService) AcceptInvite(ctx context.Context, teamID, userID string) (*teammodels.Team, error) {
	var team *teammodels.Team
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		var err error
		team, err = tx.Teams().GetTeamByID(ctx, teamID)
		if err != nil {
			return err
		}
		if team.HasMember(userID) {
			return apperrors.AlreadyMember("You are already a member of this team")
		}

		member := teammodels.Member{User: userID, Role: teammodels.DefaultRole}
		err = tx.Teams().AddMember(ctx, teamID, member)
		if errors.Is(err, apperrors.ErrConflict) {
			return apperrors.AlreadyMember("You are already a member of this team")
		}
		if err != nil {
			return err
		}
		team.Members = append(team.Members, member)

		_, err = tx.Notifications().DeleteNotifications(ctx, store.NotificationFilter{
			Recipient: userID,
			TeamID:    teamID,
			Type:      notificationmodels.TypeTeamInvite,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, team.MemberIDs()...)
	s.Hub.BroadcastToTeam(team.ID, models.Event{
		Type:    models.EventTeamUpdate,
		TeamID:  team.ID,
		UserID:  userID,
		Payload: map[string]string{"action": "memberJoined"},
	})
	s.Log.Audit("Team invite accepted", "team_id", teamID, "user_id", userID)
	return team, nil
}

// RejectInvite deletes a team-invite notification. Membership and the
// pending invite ledger are left as they are.
func (s *InviteService) RejectInvite(ctx context.Context, notificationID, userID string) error {
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		n, err := tx.Notifications().GetNotification(ctx, notificationID)
		if err != nil {
			return err
		}
		if n.Type != notificationmodels.TypeTeamInvite {
			return apperrors.InvalidType("Not a team invite")
		}
		return tx.Notifications().DeleteNotification(ctx, notificationID)
	})
	if err != nil {
		return err
	}
	s.Log.Audit("Team invite rejected", "notification_id", notificationID, "user_id", userID)
	return nil
}

// Wait blocks until every in-flight invitation email has been attempted.
func (s *InviteService) Wait() {
	s.mail.Wait()
}

func (s *InviteService) inviterName(ctx context.Context, inviterID string) string {
	if inviterID == "" {
		return DefaultInviterName
	}
	inviter, err := s.Store.Users().GetUserByID(ctx, inviterID)
	if err != nil {
		s.Log.Warn("Inviter lookup failed", "inviter_id", inviterID, "error", err)
		return DefaultInviterName
	}
	if name := strings.TrimSpace(inviter.FullName()); name != "" {
		return name
	}
	return DefaultInviterName
}

// sendMail delivers in the background. The request context may already be
// done by then, so only its values are kept.
func (s *InviteService) sendMail(ctx context.Context, msg mailer.Message) {
	ctx = context.WithoutCancel(ctx)
	s.mail.Add(1)
	go func() {
		defer s.mail.Done()
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := s.Mailer.Send(ctx, msg); err != nil {
			s.Log.WithContext(ctx).Error("Failed to send invitation email", "error", err, "to", msg.To)
		}
	}()
}

func (s *InviteService) invalidate(ctx context.Context, userIDs ...string) {
	if err := s.Cache.Invalidate(ctx, userIDs...); err != nil {
		s.Log.Error("Failed to invalidate team cache", "error", err)
	}
}
