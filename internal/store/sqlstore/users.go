package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/nikhil/sharenet/internal/apperrors"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
	"github.com/nikhil/sharenet/internal/store"
)

const userColumns = `id, email, password_hash, first_name, last_name, user_type, is_verified, profile_image, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*usermodels.User, error) {
	var (
		u         usermodels.User
		userType  string
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &userType, &u.IsVerified, &u.ProfileImage, &createdAt); err != nil {
		return nil, err
	}
	u.UserType = usermodels.UserType(userType)
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

func (r *queries) CreateUser(ctx context.Context, u *usermodels.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.UserType), u.IsVerified, u.ProfileImage, toMillis(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return apperrors.Conflict("User already exists", err)
	}
	if err != nil {
		return storeErr("insert user", err)
	}
	return nil
}

func (r *queries) getUser(ctx context.Context, where string, arg interface{}) (*usermodels.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = ?`, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, storeErr("select user", err)
	}
	return u, nil
}

func (r *queries) GetUserByID(ctx context.Context, id string) (*usermodels.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *queries) GetUserByEmail(ctx context.Context, email string) (*usermodels.User, error) {
	return r.getUser(ctx, "email", email)
}

func (r *queries) GetUsersByIDs(ctx context.Context, ids []string) (map[string]usermodels.User, error) {
	out := make(map[string]usermodels.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, storeErr("select users", err)
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storeErr("scan user", err)
		}
		out[u.ID] = *u
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate users", err)
	}
	return out, nil
}

func (r *queries) UpdateUserProfile(ctx context.Context, id string, update store.ProfileUpdate) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, profile_image = ? WHERE id = ?`,
		update.FirstName, update.LastName, update.ProfileImage, id,
	)
	if err != nil {
		return storeErr("update user", err)
	}
	return mustAffect(res, "User not found")
}

func (r *queries) SetUserType(ctx context.Context, id string, userType usermodels.UserType) error {
	res, err := r.q.ExecContext(ctx, `UPDATE users SET user_type = ? WHERE id = ?`, string(userType), id)
	if err != nil {
		return storeErr("set user type", err)
	}
	return mustAffect(res, "User not found")
}

func (r *queries) ListUsers(ctx context.Context) ([]usermodels.User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, email`)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()
	var users []usermodels.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storeErr("scan user", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate users", err)
	}
	return users, nil
}
