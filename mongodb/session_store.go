package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/confide-dev/confide/domain"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SessionStore implements domain.SessionStore on a MongoDB collection. The
// token is the document _id, and a TTL index on expires_at reaps stale
// sessions in the background.
type SessionStore struct {
	sessions *mongo.Collection
}

// NewSessionStore creates the store and ensures its TTL index.
func NewSessionStore(ctx context.Context, db *mongo.Database) (*SessionStore, error) {
	store := &SessionStore{
		sessions: db.Collection(SessionsCollection),
	}

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}
	if _, err := store.sessions.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn().Err(err).Msg("Issue creating indexes for sessions collection (might already exist)")
		return nil, err
	}
	return store, nil
}

// Store persists a new session.
func (s *SessionStore) Store(ctx context.Context, session *domain.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if _, err := s.sessions.InsertOne(ctx, session); err != nil {
		log.Error().Err(err).Msg("Error storing session in MongoDB")
		return storeErr("store session", err)
	}
	return nil
}

// Get returns the session for the token. The TTL monitor only reaps expired
// documents periodically, so expiry is also checked here.
func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	var session domain.Session
	err := s.sessions.FindOne(ctx, bson.M{"_id": token}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Msg("Error getting session from MongoDB")
		return nil, storeErr("get session", err)
	}
	if session.Expired(time.Now().UTC()) {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

// Delete removes the session, invalidating the token immediately.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if _, err := s.sessions.DeleteOne(ctx, bson.M{"_id": token}); err != nil {
		log.Error().Err(err).Msg("Error deleting session from MongoDB")
		return storeErr("delete session", err)
	}
	return nil
}

// Ensure interface compliance
var _ domain.SessionStore = (*SessionStore)(nil)
