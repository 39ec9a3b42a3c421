package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/nikhil/sharenet/internal/apperrors"
	teammodels "github.com/nikhil/sharenet/internal/models/teams"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
)

const teamColumns = `id, uuid, name, creator_id, team_image, created_at, updated_at`

func scanTeam(row rowScanner) (*teammodels.Team, error) {
	var (
		t                    teammodels.Team
		createdAt, updatedAt int64
	)
	if err := row.Scan(&t.ID, &t.UUID, &t.Name, &t.Creator, &t.TeamImage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	t.Members = []teammodels.Member{}
	t.Roles = []string{}
	t.PendingInvites = []teammodels.PendingInvite{}
	return &t, nil
}

func (r *queries) CreateTeam(ctx context.Context, t *teammodels.Team) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO teams (`+teamColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UUID, t.Name, t.Creator, t.TeamImage, toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return apperrors.Conflict("Team already exists", err)
	}
	if err != nil {
		return storeErr("insert team", err)
	}
	for i, m := range t.Members {
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO team_members (team_id, user_id, role, seq) VALUES (?, ?, ?, ?)`,
			t.ID, m.User, m.Role, i+1,
		); err != nil {
			if isUniqueViolation(err) {
				return apperrors.Conflict("User is already a member of this team", err)
			}
			return storeErr("insert team member", err)
		}
	}
	for i, role := range t.Roles {
		if _, err := r.q.ExecContext(ctx,
			`INSERT INTO team_roles (team_id, name, seq) VALUES (?, ?, ?)`,
			t.ID, role, i+1,
		); err != nil && !isUniqueViolation(err) {
			return storeErr("insert team role", err)
		}
	}
	for _, inv := range t.PendingInvites {
		if err := r.AddPendingInvite(ctx, t.ID, inv); err != nil {
			return err
		}
	}
	return nil
}

func (r *queries) getTeam(ctx context.Context, where string, arg interface{}) (*teammodels.Team, error) {
	t, err := scanTeam(r.q.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE `+where+` = ?`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("Team not found")
	}
	if err != nil {
		return nil, storeErr("select team", err)
	}
	if err := r.loadTeamLists(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// loadTeamLists fills members and roles in insertion order and pending
// invites in invitation order.
func (r *queries) loadTeamLists(ctx context.Context, t *teammodels.Team) error {
	rows, err := r.q.QueryContext(ctx, `SELECT user_id, role FROM team_members WHERE team_id = ? ORDER BY seq`, t.ID)
	if err != nil {
		return storeErr("select team members", err)
	}
	for rows.Next() {
		var m teammodels.Member
		if err := rows.Scan(&m.User, &m.Role); err != nil {
			rows.Close()
			return storeErr("scan team member", err)
		}
		t.Members = append(t.Members, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return storeErr("iterate team members", err)
	}

	rows, err = r.q.QueryContext(ctx, `SELECT name FROM team_roles WHERE team_id = ? ORDER BY seq`, t.ID)
	if err != nil {
		return storeErr("select team roles", err)
	}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			rows.Close()
			return storeErr("scan team role", err)
		}
		t.Roles = append(t.Roles, role)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return storeErr("iterate team roles", err)
	}

	rows, err = r.q.QueryContext(ctx, `SELECT email, invited_at FROM team_pending_invites WHERE team_id = ? ORDER BY invited_at, email`, t.ID)
	if err != nil {
		return storeErr("select pending invites", err)
	}
	for rows.Next() {
		var (
			inv       teammodels.PendingInvite
			invitedAt int64
		)
		if err := rows.Scan(&inv.Email, &invitedAt); err != nil {
			rows.Close()
			return storeErr("scan pending invite", err)
		}
		inv.InvitedAt = fromMillis(invitedAt)
		t.PendingInvites = append(t.PendingInvites, inv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return storeErr("iterate pending invites", err)
	}
	return nil
}

func (r *queries) GetTeamByID(ctx context.Context, id string) (*teammodels.Team, error) {
	return r.getTeam(ctx, "id", id)
}

func (r *queries) GetTeamByUUID(ctx context.Context, uuid string) (*teammodels.Team, error) {
	return r.getTeam(ctx, "uuid", uuid)
}

func (r *queries) ListTeamsForUser(ctx context.Context, userID string) ([]teammodels.Team, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT t.id, t.uuid, t.name, t.creator_id, t.team_image, t.created_at, t.updated_at
		FROM teams t
		JOIN team_members m ON m.team_id = t.id
		WHERE m.user_id = ?
		ORDER BY t.created_at, t.id`, userID)
	if err != nil {
		return nil, storeErr("list teams", err)
	}
	var teams []teammodels.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			rows.Close()
			return nil, storeErr("scan team", err)
		}
		teams = append(teams, *t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate teams", err)
	}
	// Sublists are loaded after the cursor is closed so a single-connection
	// transaction never has two result sets open.
	for i := range teams {
		if err := r.loadTeamLists(ctx, &teams[i]); err != nil {
			return nil, err
		}
	}
	return teams, nil
}

func (r *queries) RenameTeam(ctx context.Context, id, name string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `UPDATE teams SET name = ?, updated_at = ? WHERE id = ?`, name, toMillis(at), id)
	if err != nil {
		return storeErr("rename team", err)
	}
	return mustAffect(res, "Team not found")
}

func (r *queries) DeleteTeam(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete team", err)
	}
	if err := mustAffect(res, "Team not found"); err != nil {
		return err
	}
	for _, table := range []string{"team_members", "team_roles", "team_pending_invites"} {
		if _, err := r.q.ExecContext(ctx, `DELETE FROM `+table+` WHERE team_id = ?`, id); err != nil {
			return storeErr("delete "+table, err)
		}
	}
	return nil
}

func (r *queries) teamExists(ctx context.Context, id string) error {
	var one int
	err := r.q.QueryRowContext(ctx, `SELECT 1 FROM teams WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound("Team not found")
	}
	if err != nil {
		return storeErr("select team", err)
	}
	return nil
}

func (r *queries) AddPendingInvite(ctx context.Context, teamID string, inv teammodels.PendingInvite) error {
	if err := r.teamExists(ctx, teamID); err != nil {
		return err
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO team_pending_invites (team_id, email, invited_at) VALUES (?, ?, ?)`,
		teamID, inv.Email, toMillis(inv.InvitedAt),
	)
	if isUniqueViolation(err) {
		return apperrors.Conflict("This email has already been invited.", err)
	}
	if err != nil {
		return storeErr("insert pending invite", err)
	}
	return nil
}

func (r *queries) AddMember(ctx context.Context, teamID string, m teammodels.Member) error {
	if err := r.teamExists(ctx, teamID); err != nil {
		return err
	}
	var next int64
	if err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM team_members WHERE team_id = ?`, teamID,
	).Scan(&next); err != nil {
		return storeErr("next member seq", err)
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id, role, seq) VALUES (?, ?, ?, ?)`,
		teamID, m.User, m.Role, next,
	)
	if isUniqueViolation(err) {
		return apperrors.Conflict("User is already a member of this team", err)
	}
	if err != nil {
		return storeErr("insert team member", err)
	}
	return nil
}

func (r *queries) RemoveMember(ctx context.Context, teamID, userID string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = ? AND user_id = ?`, teamID, userID)
	if err != nil {
		return storeErr("delete team member", err)
	}
	return mustAffect(res, "User not found in the team")
}

func (r *queries) SetMemberRole(ctx context.Context, teamID, userID, role string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE team_members SET role = ? WHERE team_id = ? AND user_id = ?`, role, teamID, userID)
	if err != nil {
		return storeErr("update member role", err)
	}
	return mustAffect(res, "User not found in the team")
}

func (r *queries) AddRole(ctx context.Context, teamID, role string) error {
	if err := r.teamExists(ctx, teamID); err != nil {
		return err
	}
	var next int64
	if err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM team_roles WHERE team_id = ?`, teamID,
	).Scan(&next); err != nil {
		return storeErr("next role seq", err)
	}
	_, err := r.q.ExecContext(ctx, `INSERT INTO team_roles (team_id, name, seq) VALUES (?, ?, ?)`, teamID, role, next)
	if err != nil && !isUniqueViolation(err) {
		return storeErr("insert team role", err)
	}
	return nil
}

func (r *queries) ListMemberViews(ctx context.Context, teamID string) ([]teammodels.MemberView, error) {
	if err := r.teamExists(ctx, teamID); err != nil {
		return nil, err
	}
	rows, err := r.q.QueryContext(ctx, `
		SELECT m.user_id, m.role, u.id, u.first_name, u.last_name, u.email, u.profile_image
		FROM team_members m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.team_id = ?
		ORDER BY m.seq`, teamID)
	if err != nil {
		return nil, storeErr("select member views", err)
	}
	defer rows.Close()

	views := []teammodels.MemberView{}
	for rows.Next() {
		var (
			m                                teammodels.Member
			uid, first, last, email, picture sql.NullString
		)
		if err := rows.Scan(&m.User, &m.Role, &uid, &first, &last, &email, &picture); err != nil {
			return nil, storeErr("scan member view", err)
		}
		var u *usermodels.User
		if uid.Valid {
			u = &usermodels.User{ID: uid.String, FirstName: first.String, LastName: last.String, Email: email.String, ProfileImage: picture.String}
		}
		views = append(views, teammodels.NewMemberView(m, u))
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate member views", err)
	}
	return views, nil
}
