// Package store declares the persistence contracts of the identity, team,
// notification and chat records. Implementations live in sqlstore (MySQL and
// SQLite) and mongostore.
package store

import (
	"context"
	"time"

	chatmodels "github.com/nikhil/sharenet/internal/models/chats"
	notificationmodels "github.com/nikhil/sharenet/internal/models/notifications"
	teammodels "github.com/nikhil/sharenet/internal/models/teams"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
)

// UserStore is the identity store. Missing users yield apperrors.ErrNotFound
// and duplicate emails apperrors.ErrConflict.
type UserStore interface {
	CreateUser(ctx context.Context, user *usermodels.User) error
	GetUserByID(ctx context.Context, id string) (*usermodels.User, error)
	GetUserByEmail(ctx context.Context, email string) (*usermodels.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]usermodels.User, error)
	UpdateUserProfile(ctx context.Context, id string, update ProfileUpdate) error
	SetUserType(ctx context.Context, id string, userType usermodels.UserType) error
	ListUsers(ctx context.Context) ([]usermodels.User, error)
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	FirstName    string
	LastName     string
	ProfileImage string
}

// TeamStore owns team documents and their members, roles and pending invites.
// The sublist mutations are atomic per call: AddMember and AddPendingInvite
// return apperrors.ErrConflict instead of writing a second entry for the same
// user or email.
type TeamStore interface {
	CreateTeam(ctx context.Context, team *teammodels.Team) error
	GetTeamByID(ctx context.Context, id string) (*teammodels.Team, error)
	GetTeamByUUID(ctx context.Context, uuid string) (*teammodels.Team, error)
	ListTeamsForUser(ctx context.Context, userID string) ([]teammodels.Team, error)
	RenameTeam(ctx context.Context, id, name string, at time.Time) error
	DeleteTeam(ctx context.Context, id string) error

	AddPendingInvite(ctx context.Context, teamID string, invite teammodels.PendingInvite) error
	AddMember(ctx context.Context, teamID string, member teammodels.Member) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	SetMemberRole(ctx context.Context, teamID, userID, role string) error
	// AddRole is a no-op when the role is already registered.
	AddRole(ctx context.Context, teamID, role string) error

	// ListMemberViews joins members with their user records, in member order.
	ListMemberViews(ctx context.Context, teamID string) ([]teammodels.MemberView, error)
}

// NotificationFilter selects notifications for bulk deletion. Empty fields
// match anything, but Recipient is always required.
type NotificationFilter struct {
	Recipient string
	TeamID    string
	Type      notificationmodels.Type
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *notificationmodels.Notification) error
	GetNotification(ctx context.Context, id string) (*notificationmodels.Notification, error)
	// ListRecentNotifications returns at most limit notifications, newest first.
	ListRecentNotifications(ctx context.Context, recipient string, limit int) ([]notificationmodels.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
	DeleteNotifications(ctx context.Context, filter NotificationFilter) (int64, error)
}

type ChatStore interface {
	CreateChatMessage(ctx context.Context, msg *chatmodels.Message) error
	// ListChatMessages returns a team's history oldest first.
	ListChatMessages(ctx context.Context, teamID string) ([]chatmodels.Message, error)
}

// Repositories groups the record stores bound to one connection or transaction.
type Repositories interface {
	Users() UserStore
	Teams() TeamStore
	Notifications() NotificationStore
	Chats() ChatStore
}

// Store is a Repositories backed by a live connection.
type Store interface {
	Repositories
	// WithinTx runs fn against repositories bound to a single transaction
	// when the backend supports one. fn must only use the tx it is given.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
