// Package notificationService manages per-user notifications.
package notificationService

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/models"
	notificationmodels "github.com/nikhil/sharenet/internal/models/notifications"
	"github.com/nikhil/sharenet/internal/store"
)

// RecentLimit is how many notifications a listing returns.
const RecentLimit = 5

type NotificationService struct {
	Store store.Store
	Hub   models.Pusher
	Log   *logger.Logger

	Now   func() time.Time
	NewID func() string
}

func NewNotificationService(st store.Store, hub models.Pusher, log *logger.Logger) *NotificationService {
	return &NotificationService{
		Store: st,
		Hub:   hub,
		Log:   log.Named("notification-service"),
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
}

// CreateInput is a notification addressed by the caller.
type CreateInput struct {
	Message   string
	Recipient string
	Type      notificationmodels.Type
	TeamID    string
}

// Create stores a notification and pushes it to the recipient if connected.
// Team invites are only written by the invitation workflow.
func (s *NotificationService) Create(ctx context.Context, in CreateInput) (*notificationmodels.Notification, error) {
	if in.Type == "" {
		in.Type = notificationmodels.TypeOther
	}
	if in.Type == notificationmodels.TypeTeamInvite {
		return nil, apperrors.Validation("Team invites are sent through the team invitation endpoint.")
	}
	n := &notificationmodels.Notification{
		ID:        s.NewID(),
		Message:   strings.TrimSpace(in.Message),
		Recipient: in.Recipient,
		Type:      in.Type,
		TeamID:    in.TeamID,
		CreatedAt: s.Now(),
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Store.Users().GetUserByID(ctx, n.Recipient); err != nil {
		return nil, err
	}
	if err := s.Store.Notifications().CreateNotification(ctx, n); err != nil {
		return nil, err
	}
	s.Hub.PushToUser(n.Recipient, models.Event{Type: models.EventNotification, UserID: n.Recipient, TeamID: n.TeamID, Payload: n})
	return n, nil
}

// ListRecent returns the caller's latest notifications, newest first.
func (s *NotificationService) ListRecent(ctx context.Context, userID string) ([]notificationmodels.Notification, error) {
	return s.Store.Notifications().ListRecentNotifications(ctx, userID, RecentLimit)
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*notificationmodels.Notification, error) {
	n, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Store.Notifications().MarkNotificationRead(ctx, id); err != nil {
		return nil, err
	}
	n.Read = true
	return n, nil
}

// Delete removes one of the caller's notifications.
func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.Store.Notifications().DeleteNotification(ctx, id)
}

// owned loads a notification and hides it from anyone but its recipient.
func (s *NotificationService) owned(ctx context.Context, id, userID string) (*notificationmodels.Notification, error) {
	n, err := s.Store.Notifications().GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Recipient != userID {
		s.Log.Warn("Notification access by non-recipient", "notification_id", id, "user_id", userID)
		return nil, apperrors.NotFound("Notification not found")
	}
	return n, nil
}
