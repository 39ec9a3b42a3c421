package teammodels

import (
	"strings"
	"time"

	usermodels "github.com/nikhil/sharenet/internal/models/users"
)

// DefaultRole is given to creators and to users joining through an invite.
const DefaultRole = "User"

// Member is a (user, role) pair inside a team.
type Member struct {
	User string `json:"user" bson:"user"`
	Role string `json:"role" bson:"role"`
}

// PendingInvite is an outstanding invitation keyed by email.
type PendingInvite struct {
	Email     string    `json:"email" bson:"email"`
	InvitedAt time.Time `json:"invitedAt" bson:"invitedAt"`
}

// Team represents a team entity
type Team struct {
	ID             string          `json:"id" bson:"_id"`
	UUID           string          `json:"uuid" bson:"uuid"`
	Name           string          `json:"name" bson:"name"`
	Creator        string          `json:"creator" bson:"creator"`
	TeamImage      string          `json:"teamImage" bson:"teamImage"`
	Members        []Member        `json:"members" bson:"members"`
	Roles          []string        `json:"roles" bson:"roles"`
	PendingInvites []PendingInvite `json:"pendingInvites" bson:"pendingInvites"`
	CreatedAt      time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// MemberIndex returns the position of userID in Members, or -1.
func (t *Team) MemberIndex(userID string) int {
	for i, m := range t.Members {
		if m.User == userID {
			return i
		}
	}
	return -1
}

func (t *Team) HasMember(userID string) bool {
	return t.MemberIndex(userID) >= 0
}

func (t *Team) HasRole(role string) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (t *Team) HasPendingInvite(email string) bool {
	for _, inv := range t.PendingInvites {
		if inv.Email == email {
			return true
		}
	}
	return false
}

// MemberIDs lists the user ids of every member in order.
func (t *Team) MemberIDs() []string {
	ids := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		ids = append(ids, m.User)
	}
	return ids
}

// RoleList renders the role vocabulary for error messages.
func (t *Team) RoleList() string {
	return strings.Join(t.Roles, ", ")
}

// MemberView is a member resolved against the identity store.
type MemberView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
	Email        string `json:"email"`
	Role         string `json:"role"`
}

// NewMemberView renders a member for listings. A member whose user record is
// gone shows as "Unknown Member" and an empty role as "No Role".
func NewMemberView(m Member, u *usermodels.User) MemberView {
	view := MemberView{ID: m.User, Name: "Unknown Member", Role: m.Role}
	if u != nil {
		view.Name = u.FullName()
		view.ProfileImage = u.ProfileImage
		view.Email = u.Email
	}
	if view.Role == "" {
		view.Role = "No Role"
	}
	return view
}
