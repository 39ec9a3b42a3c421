package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/nikhil/sharenet/internal/apperrors"
	notificationmodels "github.com/nikhil/sharenet/internal/models/notifications"
	"github.com/nikhil/sharenet/internal/store"
)

const notificationColumns = `id, message, recipient_id, is_read, type, team_id, created_at`

func scanNotification(row rowScanner) (*notificationmodels.Notification, error) {
	var (
		n         notificationmodels.Notification
		kind      string
		teamID    sql.NullString
		createdAt int64
	)
	if err := row.Scan(&n.ID, &n.Message, &n.Recipient, &n.Read, &kind, &teamID, &createdAt); err != nil {
		return nil, err
	}
	n.Type = notificationmodels.Type(kind)
	n.TeamID = teamID.String
	n.CreatedAt = fromMillis(createdAt)
	return &n, nil
}

func (r *queries) CreateNotification(ctx context.Context, n *notificationmodels.Notification) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Message, n.Recipient, n.Read, string(n.Type), nullString(n.TeamID), toMillis(n.CreatedAt),
	)
	if err != nil {
		return storeErr("insert notification", err)
	}
	return nil
}

func (r *queries) GetNotification(ctx context.Context, id string) (*notificationmodels.Notification, error) {
	n, err := scanNotification(r.q.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("Notification not found")
	}
	if err != nil {
		return nil, storeErr("select notification", err)
	}
	return n, nil
}

func (r *queries) ListRecentNotifications(ctx context.Context, recipient string, limit int) ([]notificationmodels.Notification, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE recipient_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		recipient, limit,
	)
	if err != nil {
		return nil, storeErr("list notifications", err)
	}
	defer rows.Close()
	list := []notificationmodels.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, storeErr("scan notification", err)
		}
		list = append(list, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate notifications", err)
	}
	return list, nil
}

func (r *queries) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `UPDATE notifications SET is_read = ? WHERE id = ?`, true, id)
	if err != nil {
		return storeErr("mark notification read", err)
	}
	return mustAffect(res, "Notification not found")
}

func (r *queries) DeleteNotification(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		return storeErr("delete notification", err)
	}
	return mustAffect(res, "Notification not found")
}

func (r *queries) DeleteNotifications(ctx context.Context, filter store.NotificationFilter) (int64, error) {
	if filter.Recipient == "" {
		return 0, apperrors.Validation("Notification recipient is required.")
	}
	where := []string{"recipient_id = ?"}
	args := []interface{}{filter.Recipient}
	if filter.TeamID != "" {
		where = append(where, "team_id = ?")
		args = append(args, filter.TeamID)
	}
	if filter.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(filter.Type))
	}
	res, err := r.q.ExecContext(ctx, `DELETE FROM notifications WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return 0, storeErr("delete notifications", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("rows affected", err)
	}
	return n, nil
}
