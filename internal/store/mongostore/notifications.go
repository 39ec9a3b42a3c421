package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nikhil/sharenet/internal/apperrors"
	chatmodels "github.com/nikhil/sharenet/internal/models/chats"
	notificationmodels "github.com/nikhil/sharenet/internal/models/notifications"
	"github.com/nikhil/sharenet/internal/store"
)

func (c *collections) CreateNotification(ctx context.Context, n *notificationmodels.Notification) error {
	if _, err := c.notifications.InsertOne(ctx, n); err != nil {
		return storeErr("insert notification", err)
	}
	return nil
}

func (c *collections) GetNotification(ctx context.Context, id string) (*notificationmodels.Notification, error) {
	var n notificationmodels.Notification
	err := c.notifications.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if isNoDocuments(err) {
		return nil, apperrors.NotFound("Notification not found")
	}
	if err != nil {
		return nil, storeErr("find notification", err)
	}
	return &n, nil
}

func (c *collections) ListRecentNotifications(ctx context.Context, recipient string, limit int) ([]notificationmodels.Notification, error) {
	cur, err := c.notifications.Find(ctx, bson.M{"recipient": recipient},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
			SetLimit(int64(limit)))
	if err != nil {
		return nil, storeErr("list notifications", err)
	}
	list := []notificationmodels.Notification{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, storeErr("decode notifications", err)
	}
	return list, nil
}

func (c *collections) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := c.notifications.UpdateByID(ctx, id, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return storeErr("mark notification read", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("Notification not found")
	}
	return nil
}

func (c *collections) DeleteNotification(ctx context.Context, id string) error {
	res, err := c.notifications.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr("delete notification", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("Notification not found")
	}
	return nil
}

func (c *collections) DeleteNotifications(ctx context.Context, filter store.NotificationFilter) (int64, error) {
	if filter.Recipient == "" {
		return 0, apperrors.Validation("Notification recipient is required.")
	}
	query := bson.M{"recipient": filter.Recipient}
	if filter.TeamID != "" {
		query["teamId"] = filter.TeamID
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	res, err := c.notifications.DeleteMany(ctx, query)
	if err != nil {
		return 0, storeErr("delete notifications", err)
	}
	return res.DeletedCount, nil
}

func (c *collections) CreateChatMessage(ctx context.Context, msg *chatmodels.Message) error {
	if _, err := c.chats.InsertOne(ctx, msg); err != nil {
		return storeErr("insert chat message", err)
	}
	return nil
}

func (c *collections) ListChatMessages(ctx context.Context, teamID string) ([]chatmodels.Message, error) {
	cur, err := c.chats.Find(ctx, bson.M{"team": teamID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storeErr("list chat messages", err)
	}
	messages := []chatmodels.Message{}
	if err := cur.All(ctx, &messages); err != nil {
		return nil, storeErr("decode chat messages", err)
	}
	return messages, nil
}
