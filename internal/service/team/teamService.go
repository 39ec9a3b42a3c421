// Package teamService owns team records: creation, listing, renaming,
// deletion, the role vocabulary and member roles.
package teamService

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/cache"
	"github.com/nikhil/sharenet/internal/logger"
	"github.com/nikhil/sharenet/internal/models"
	teammodels "github.com/nikhil/sharenet/internal/models/teams"
	"github.com/nikhil/sharenet/internal/store"
)

// TeamService handles team-related operations
type TeamService struct {
	Store store.Store
	Cache cache.TeamCache
	Hub   models.Pusher
	Log   *logger.Logger

	Now   func() time.Time
	NewID func() string
}

// NewTeamService initializes a new team service
func NewTeamService(st store.Store, c cache.TeamCache, hub models.Pusher, log *logger.Logger) *TeamService {
	return &TeamService{
		Store: st,
		Cache: c,
		Hub:   hub,
		Log:   log.Named("team-service"),
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: uuid.NewString,
	}
}

// NormalizeRole canonicalizes a role name: whitespace-separated tokens get
// an upper-case first letter and lower-case rest, joined by single spaces.
func NormalizeRole(role string) string {
	words := strings.Fields(role)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// CreateTeam stores a new team with the creator as its only member.
func (ts *TeamService) CreateTeam(ctx context.Context, creatorID, name string) (*teammodels.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("Team name is required.")
	}
	now := ts.Now()
	team := &teammodels.Team{
		ID:             ts.NewID(),
		UUID:           ts.NewID(),
		Name:           name,
		Creator:        creatorID,
		Members:        []teammodels.Member{{User: creatorID, Role: teammodels.DefaultRole}},
		Roles:          []string{},
		PendingInvites: []teammodels.PendingInvite{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := ts.Store.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		return tx.Teams().CreateTeam(ctx, team)
	})
	if err != nil {
		return nil, err
	}
	ts.invalidate(ctx, creatorID)
	ts.Log.Info("Team created", "team_id", team.ID, "user_id", creatorID)
	return team, nil
}

// GetUserTeams lists the teams userID belongs to, served from cache when
// possible.
func (ts *TeamService) GetUserTeams(ctx context.Context, userID string) ([]teammodels.Team, error) {
	if teams, ok, err := ts.Cache.GetTeams(ctx, userID); err != nil {
		ts.Log.Error("Failed to read team cache", "error", err, "user_id", userID)
	} else if ok {
		ts.Log.Debug("Teams fetched from cache", "user_id", userID)
		return teams, nil
	}

	teams, err := ts.Store.Teams().ListTeamsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if teams == nil {
		teams = []teammodels.Team{}
	}
	if err := ts.Cache.SetTeams(ctx, userID, teams); err != nil {
		ts.Log.Error("Failed to cache teams", "error", err, "user_id", userID)
	}
	ts.Log.Debug("Teams fetched from database", "user_id", userID, "count", len(teams))
	return teams, nil
}

func (ts *TeamService) GetTeamByUUID(ctx context.Context, teamUUID string) (*teammodels.Team, error) {
	return ts.Store.Teams().GetTeamByUUID(ctx, teamUUID)
}

func (ts *TeamService) GetTeam(ctx context.Context, teamID string) (*teammodels.Team, error) {
	return ts.Store.Teams().GetTeamByID(ctx, teamID)
}

// RenameTeam changes the display name and returns the updated team.
func (ts *TeamService) RenameTeam(ctx context.Context, teamID, name string) (*teammodels.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.Validation("Team name is required and cannot be empty.")
	}
	var team *teammodels.Team
	err := ts.Store.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		if err := tx.Teams().RenameTeam(ctx, teamID, name, ts.Now()); err != nil {
			return err
		}
		var err error
		team, err = tx.Teams().GetTeamByID(ctx, teamID)
		return err
	})
	if err != nil {
		return nil, err
	}
	ts.changed(ctx, team, "renamed")
	return team, nil
}

// DeleteTeam removes the team. Notifications that reference it are kept.
func (ts *TeamService) DeleteTeam(ctx context.Context, teamID string) error {
	var team *teammodels.Team
	err := ts.Store.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		var err error
		team, err = tx.Teams().GetTeamByID(ctx, teamID)
		if err != nil {
			return err
		}
		return tx.Teams().DeleteTeam(ctx, teamID)
	})
	if err != nil {
		return err
	}
	ts.changed(ctx, team, "deleted")
	ts.Log.Audit("Team deleted", "team_id", teamID)
	return nil
}

// RemoveMember drops userID from the team, keeping the order of the rest.
func (ts *TeamService) RemoveMember(ctx context.Context, teamID, userID string) error {
	var team *teammodels.Team
	err := ts.Store.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		var err error
		team, err = tx.Teams().GetTeamByID(ctx, teamID)
		if err != nil {
			return err
		}
		if !team.HasMember(userID) {
			return apperrors.NotFound("User not found in the team")
		}
		return tx.Teams().RemoveMember(ctx, teamID, userID)
	})
	if err != nil {
		return err
	}
	ts.changed(ctx, team, "memberRemoved")
	ts.Log.Audit("Team member removed", "team_id", teamID, "user_id", userID)
	return nil
}

// GetMembers returns the resolved member list in membership order.
func (ts *TeamService) GetMembers(ctx context.Context, teamID string) ([]teammodels.MemberView, error) {
	return ts.Store.Teams().ListMemberViews(ctx, teamID)
}

// AddRole registers a role on the team after normalizing it. Adding an
// existing role is a no-op.
func (ts *TeamService) AddRole(ctx context.Context, teamID, roleName string) (*teammodels.Team, error) {
	role := NormalizeRole(roleName)
	if role == "" {
		return nil, apperrors.Validation("Role is required")
	}
	var team *teammodels.Team
	err := ts.Store.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		if err := tx.Teams().AddRole(ctx, teamID, role); err != nil {
			return err
		}
		var err error
		team, err = tx.Teams().GetTeamByID(ctx, teamID)
		return err
	})
	if err != nil {
		return nil, err
	}
	ts.changed(ctx, team, "roleAdded")
	return team, nil
}

// GetRoles returns the team's role vocabulary.
func (ts *TeamService) GetRoles(ctx context.Context, teamID string) ([]string, error) {
	team, err := ts.Store.Teams().GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.Roles == nil {
		return []string{}, nil
	}
	return team.Roles, nil
}

// AssignRole sets the role of an existing member. The role must already be
// registered on the team.
func (ts *TeamService) AssignRole(ctx context.Context, teamID, userID, role string) (*teammodels.Member, error) {
	var (
		team    *teammodels.Team
		updated teammodels.Member
	)
	err := ts.Store.WithinTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		var err error
		team, err = tx.Teams().GetTeamByID(ctx, teamID)
		if err != nil {
			return err
		}
		if !team.HasRole(role) {
			return apperrors.InvalidRole("Invalid role. Available roles are: " + team.RoleList())
		}
		idx := team.MemberIndex(userID)
		if idx < 0 {
			return apperrors.NotFound("User not found in the team")
		}
		if err := tx.Teams().SetMemberRole(ctx, teamID, userID, role); err != nil {
			return err
		}
		team.Members[idx].Role = role
		updated = team.Members[idx]
		return nil
	})
	if err != nil {
		return nil, err
	}
	ts.changed(ctx, team, "roleAssigned")
	ts.Log.Audit("Team role assigned", "team_id", teamID, "user_id", userID, "role", role)
	return &updated, nil
}

// IsMember reports whether userID belongs to the team.
func (ts *TeamService) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	team, err := ts.Store.Teams().GetTeamByID(ctx, teamID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return team.HasMember(userID), nil
}

// changed invalidates the listings of everyone on the team and tells
// connected members.
func (ts *TeamService) changed(ctx context.Context, team *teammodels.Team, action string) {
	ts.invalidate(ctx, team.MemberIDs()...)
	ts.Hub.BroadcastToTeam(team.ID, models.Event{
		Type:    models.EventTeamUpdate,
		TeamID:  team.ID,
		Payload: map[string]string{"action": action},
	})
}

func (ts *TeamService) invalidate(ctx context.Context, userIDs ...string) {
	if err := ts.Cache.Invalidate(ctx, userIDs...); err != nil {
		ts.Log.Error("Failed to invalidate cache", "error", err)
	}
}
