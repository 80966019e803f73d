package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
	"github.com/Divya4879/Sassy-AI-Debate-Coach/utils/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

const SessionsCollection = "debate_sessions"

// MongoSessionStore stores one document per session, keyed by session id.
type MongoSessionStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoSessionStore connects to uri and ensures the expiry index on
// updated_at. ttl <= 0 skips the index.
func NewMongoSessionStore(ctx context.Context, uri, database string, ttl time.Duration) (*MongoSessionStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	coll := client.Database(database).Collection(SessionsCollection)
	if ttl > 0 {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(ttl / time.Second)),
		})
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("creating session expiry index: %w", err)
		}
	}

	log.WithCtx(ctx).Info("Mongo session store ready",
		zap.String("database", database),
		zap.String("collection", SessionsCollection),
		zap.Duration("ttl", ttl))

	return &MongoSessionStore{client: client, collection: coll, now: time.Now}, nil
}

func (m *MongoSessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	var s domain.Session
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("finding session: %w", err)
	}
	return s, nil
}

func (m *MongoSessionStore) Put(ctx context.Context, session domain.Session) error {
	session.UpdatedAt = m.now().UTC()
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": session.ID}, session, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (m *MongoSessionStore) Delete(ctx context.Context, id string) error {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (m *MongoSessionStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
