// Package mongostore implements the store contracts on MongoDB. Teams are
// single documents with embedded members, roles and pending invites, so every
// sublist mutation is one conditional update.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nikhil/sharenet/internal/apperrors"
	"github.com/nikhil/sharenet/internal/store"
)

const (
	usersCollection         = "users"
	teamsCollection         = "teams"
	notificationsCollection = "notifications"
	chatsCollection         = "chats"
)

type collections struct {
	users         *mongo.Collection
	teams         *mongo.Collection
	notifications *mongo.Collection
	chats         *mongo.Collection
}

func (c *collections) Users() store.UserStore                 { return c }
func (c *collections) Teams() store.TeamStore                 { return c }
func (c *collections) Notifications() store.NotificationStore { return c }
func (c *collections) Chats() store.ChatStore                 { return c }

// Store is a store.Store on a MongoDB database.
type Store struct {
	*collections
	client       *mongo.Client
	transactions bool
}

var _ store.Store = (*Store)(nil)

// Options configures Open.
type Options struct {
	URI      string
	Database string
	// Transactions enables multi-document transactions. It requires a
	// replica set; standalone servers run WithinTx without one.
	Transactions bool
}

// Open connects, pings and ensures indexes.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(opts.Database)
	s := &Store{
		collections: &collections{
			users:         db.Collection(usersCollection),
			teams:         db.Collection(teamsCollection),
			notifications: db.Collection(notificationsCollection),
			chats:         db.Collection(chatsCollection),
		},
		client:       client,
		transactions: opts.Transactions,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.teams, mongo.IndexModel{Keys: bson.D{{Key: "uuid", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.teams, mongo.IndexModel{Keys: bson.D{{Key: "members.user", Value: 1}}}},
		{s.notifications, mongo.IndexModel{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{s.chats, mongo.IndexModel{Keys: bson.D{{Key: "team", Value: 1}, {Key: "createdAt", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// WithinTx runs fn inside a session transaction when transactions are
// enabled. Otherwise fn runs directly and relies on the per-call atomicity of
// the conditional updates.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Repositories) error) error {
	if !s.transactions {
		return fn(ctx, s.collections)
	}
	session, err := s.client.StartSession()
	if err != nil {
		return apperrors.Store("start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s.collections)
	})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes the database. Used by integration tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.users.Database().Drop(ctx)
}

func storeErr(op string, err error) error {
	return apperrors.Store(op, err)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
