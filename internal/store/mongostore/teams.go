package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nikhil/sharenet/internal/apperrors"
	teammodels "github.com/nikhil/sharenet/internal/models/teams"
	usermodels "github.com/nikhil/sharenet/internal/models/users"
)

func normalizeTeam(t *teammodels.Team) {
	if t.Members == nil {
		t.Members = []teammodels.Member{}
	}
	if t.Roles == nil {
		t.Roles = []string{}
	}
	if t.PendingInvites == nil {
		t.PendingInvites = []teammodels.PendingInvite{}
	}
}

func (c *collections) CreateTeam(ctx context.Context, t *teammodels.Team) error {
	doc := *t
	normalizeTeam(&doc)
	_, err := c.teams.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.Conflict("Team already exists", err)
	}
	if err != nil {
		return storeErr("insert team", err)
	}
	return nil
}

func (c *collections) findTeam(ctx context.Context, filter bson.M) (*teammodels.Team, error) {
	var t teammodels.Team
	err := c.teams.FindOne(ctx, filter).Decode(&t)
	if isNoDocuments(err) {
		return nil, apperrors.NotFound("Team not found")
	}
	if err != nil {
		return nil, storeErr("find team", err)
	}
	normalizeTeam(&t)
	return &t, nil
}

func (c *collections) GetTeamByID(ctx context.Context, id string) (*teammodels.Team, error) {
	return c.findTeam(ctx, bson.M{"_id": id})
}

func (c *collections) GetTeamByUUID(ctx context.Context, uuid string) (*teammodels.Team, error) {
	return c.findTeam(ctx, bson.M{"uuid": uuid})
}

func (c *collections) ListTeamsForUser(ctx context.Context, userID string) ([]teammodels.Team, error) {
	cur, err := c.teams.Find(ctx, bson.M{"members.user": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, storeErr("list teams", err)
	}
	var teams []teammodels.Team
	if err := cur.All(ctx, &teams); err != nil {
		return nil, storeErr("decode teams", err)
	}
	for i := range teams {
		normalizeTeam(&teams[i])
	}
	return teams, nil
}

func (c *collections) RenameTeam(ctx context.Context, id, name string, at time.Time) error {
	res, err := c.teams.UpdateByID(ctx, id, bson.M{"$set": bson.M{"name": name, "updatedAt": at}})
	if err != nil {
		return storeErr("rename team", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("Team not found")
	}
	return nil
}

func (c *collections) DeleteTeam(ctx context.Context, id string) error {
	res, err := c.teams.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storeErr("delete team", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound("Team not found")
	}
	return nil
}

// unmatched resolves a conditional update that matched nothing: a missing
// team is NotFound, otherwise the condition failed with conflict.
func (c *collections) unmatched(ctx context.Context, teamID string, conflict error) error {
	n, err := c.teams.CountDocuments(ctx, bson.M{"_id": teamID})
	if err != nil {
		return storeErr("count team", err)
	}
	if n == 0 {
		return apperrors.NotFound("Team not found")
	}
	return conflict
}

func (c *collections) AddPendingInvite(ctx context.Context, teamID string, inv teammodels.PendingInvite) error {
	res, err := c.teams.UpdateOne(ctx,
		bson.M{"_id": teamID, "pendingInvites.email": bson.M{"$ne": inv.Email}},
		bson.M{"$push": bson.M{"pendingInvites": inv}},
	)
	if err != nil {
		return storeErr("push pending invite", err)
	}
	if res.MatchedCount == 0 {
		return c.unmatched(ctx, teamID, apperrors.Conflict("This email has already been invited.", nil))
	}
	return nil
}

func (c *collections) AddMember(ctx context.Context, teamID string, m teammodels.Member) error {
	res, err := c.teams.UpdateOne(ctx,
		bson.M{"_id": teamID, "members.user": bson.M{"$ne": m.User}},
		bson.M{"$push": bson.M{"members": m}},
	)
	if err != nil {
		return storeErr("push member", err)
	}
	if res.MatchedCount == 0 {
		return c.unmatched(ctx, teamID, apperrors.Conflict("User is already a member of this team", nil))
	}
	return nil
}

func (c *collections) RemoveMember(ctx context.Context, teamID, userID string) error {
	res, err := c.teams.UpdateOne(ctx,
		bson.M{"_id": teamID, "members.user": userID},
		bson.M{"$pull": bson.M{"members": bson.M{"user": userID}}},
	)
	if err != nil {
		return storeErr("pull member", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("User not found in the team")
	}
	return nil
}

func (c *collections) SetMemberRole(ctx context.Context, teamID, userID, role string) error {
	res, err := c.teams.UpdateOne(ctx,
		bson.M{"_id": teamID, "members.user": userID},
		bson.M{"$set": bson.M{"members.$.role": role}},
	)
	if err != nil {
		return storeErr("set member role", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("User not found in the team")
	}
	return nil
}

func (c *collections) AddRole(ctx context.Context, teamID, role string) error {
	res, err := c.teams.UpdateByID(ctx, teamID, bson.M{"$addToSet": bson.M{"roles": role}})
	if err != nil {
		return storeErr("add role", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("Team not found")
	}
	return nil
}

func (c *collections) ListMemberViews(ctx context.Context, teamID string) ([]teammodels.MemberView, error) {
	team, err := c.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	users, err := c.GetUsersByIDs(ctx, team.MemberIDs())
	if err != nil {
		return nil, err
	}
	views := make([]teammodels.MemberView, 0, len(team.Members))
	for _, m := range team.Members {
		var u *usermodels.User
		if found, ok := users[m.User]; ok {
			u = &found
		}
		views = append(views, teammodels.NewMemberView(m, u))
	}
	return views, nil
}
