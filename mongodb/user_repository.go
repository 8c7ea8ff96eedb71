package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confide-dev/confide/domain"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UserRepository implements domain.UserRepository on a MongoDB collection.
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository creates the repository and ensures its indexes. The
// unique sparse indexes on username and google_id are what enforce the
// one-user-per-key invariants; application code never re-checks them.
func NewUserRepository(ctx context.Context, db *mongo.Database) (*UserRepository, error) {
	repo := &UserRepository{
		users: db.Collection(UsersCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *UserRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			// Sparse: federated-only accounts have no username.
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			// Sparse: local-only accounts have no linked Google identity.
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	_, err := r.users.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		log.Warn().Err(err).Msg("Error creating indexes for users collection (may already exist)")
		return fmt.Errorf("failed to create indexes for users collection: %w", err)
	}
	return nil
}

// CreateUser inserts a new user record.
func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = NewObjectID()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateUsername
		}
		log.Error().Err(err).Str("username", user.Username).Msg("Error creating user in MongoDB")
		return storeErr("create user", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Str("id", id).Msg("Error getting user by ID from MongoDB")
		return nil, storeErr("get user by id", err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by their username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		log.Error().Err(err).Str("username", username).Msg("Error getting user by username from MongoDB")
		return nil, storeErr("get user by username", err)
	}
	return &user, nil
}

// FindOrCreateByGoogleID returns the user linked to the Google subject,
// creating it on first login. A single upsert keeps the operation atomic:
// concurrent first logins with the same subject race on the unique google_id
// index rather than on a read-then-write window, so exactly one record wins.
func (r *UserRepository) FindOrCreateByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	user, err := r.findOrCreateByGoogleID(ctx, googleID)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// Lost the upsert race to a concurrent login; the record exists now.
		user, err = r.findOrCreateByGoogleID(ctx, googleID)
	}
	if err != nil {
		log.Error().Err(err).Str("google_id", googleID).Msg("Error upserting federated user in MongoDB")
		return nil, storeErr("find or create user", err)
	}
	return user, nil
}

func (r *UserRepository) findOrCreateByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	now := time.Now().UTC()
	filter := bson.M{"google_id": googleID}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":        NewObjectID(),
		"google_id":  googleID,
		"created_at": now,
		"updated_at": now,
	}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user domain.User
	if err := r.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetSecret overwrites the user's secret with a targeted update.
func (r *UserRepository) SetSecret(ctx context.Context, userID, secret string) error {
	update := bson.M{"$set": bson.M{
		"secret":     secret,
		"updated_at": time.Now().UTC(),
	}}
	result, err := r.users.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Error setting secret in MongoDB")
		return storeErr("set secret", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListUsersWithSecrets returns every user whose secret is set, most recently
// updated first.
func (r *UserRepository) ListUsersWithSecrets(ctx context.Context) ([]*domain.User, error) {
	filter := bson.M{"secret": bson.M{"$exists": true, "$ne": ""}}
	findOptions := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.users.Find(ctx, filter, findOptions)
	if err != nil {
		log.Error().Err(err).Msg("Error listing users with secrets from MongoDB")
		return nil, storeErr("list secrets", err)
	}
	defer cursor.Close(ctx)

	var users []*domain.User
	if err = cursor.All(ctx, &users); err != nil {
		log.Error().Err(err).Msg("Error decoding users with secrets from MongoDB")
		return nil, storeErr("list secrets", err)
	}
	return users, nil
}

// Ensure interface compliance
var _ domain.UserRepository = (*UserRepository)(nil)
