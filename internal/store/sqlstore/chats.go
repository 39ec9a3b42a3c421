package sqlstore

import (
	"context"

	chatmodels "github.com/nikhil/sharenet/internal/models/chats"
)

func (r *queries) CreateChatMessage(ctx context.Context, msg *chatmodels.Message) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO chat_messages (id, team_id, sender_id, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.TeamID, msg.Sender, msg.Message, toMillis(msg.CreatedAt),
	)
	if err != nil {
		return storeErr("insert chat message", err)
	}
	return nil
}

func (r *queries) ListChatMessages(ctx context.Context, teamID string) ([]chatmodels.Message, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, team_id, sender_id, message, created_at FROM chat_messages WHERE team_id = ? ORDER BY created_at, id`,
		teamID,
	)
	if err != nil {
		return nil, storeErr("list chat messages", err)
	}
	defer rows.Close()
	messages := []chatmodels.Message{}
	for rows.Next() {
		var (
			m         chatmodels.Message
			createdAt int64
		)
		if err := rows.Scan(&m.ID, &m.TeamID, &m.Sender, &m.Message, &createdAt); err != nil {
			return nil, storeErr("scan chat message", err)
		}
		m.CreatedAt = fromMillis(createdAt)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate chat messages", err)
	}
	return messages, nil
}
