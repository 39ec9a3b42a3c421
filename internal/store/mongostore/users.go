package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nikhil/sharenet/internal/apperrors"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
	"github.com/nikhil/sharenet/internal/store"
)

func (c *collections) CreateUser(ctx context.Context, u *usermodels.User) error {
	_, err := c.users.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.Conflict("User already exists", err)
	}
	if err != nil {
		return storeErr("insert user", err)
	}
	return nil
}

func (c *collections) findUser(ctx context.Context, filter bson.M) (*usermodels.User, error) {
	var u usermodels.User
	err := c.users.FindOne(ctx, filter).Decode(&u)
	if isNoDocuments(err) {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}
	return &u, nil
}

func (c *collections) GetUserByID(ctx context.Context, id string) (*usermodels.User, error) {
	return c.findUser(ctx, bson.M{"_id": id})
}

func (c *collections) GetUserByEmail(ctx context.Context, email string) (*usermodels.User, error) {
	return c.findUser(ctx, bson.M{"email": email})
}

func (c *collections) GetUsersByIDs(ctx context.Context, ids []string) (map[string]usermodels.User, error) {
	out := make(map[string]usermodels.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := c.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, storeErr("find users", err)
	}
	var users []usermodels.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, storeErr("decode users", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (c *collections) UpdateUserProfile(ctx context.Context, id string, update store.ProfileUpdate) error {
	res, err := c.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"firstName":    update.FirstName,
		"lastName":     update.LastName,
		"profileImage": update.ProfileImage,
	}})
	if err != nil {
		return storeErr("update user", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("User not found")
	}
	return nil
}

func (c *collections) SetUserType(ctx context.Context, id string, userType usermodels.UserType) error {
	res, err := c.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{"userType": userType}})
	if err != nil {
		return storeErr("set user type", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("User not found")
	}
	return nil
}

func (c *collections) ListUsers(ctx context.Context) ([]usermodels.User, error) {
	cur, err := c.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "email", Value: 1}}))
	if err != nil {
		return nil, storeErr("list users", err)
	}
	var users []usermodels.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, storeErr("decode users", err)
	}
	return users, nil
}
