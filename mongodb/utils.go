package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/confide-dev/confide/domain"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// NewObjectID generates a new MongoDB ObjectID as a string.
func NewObjectID() string {
	return bson.NewObjectID().Hex()
}

// storeErr translates a driver-level failure into the domain taxonomy. Domain
// errors pass through untouched; anything else (network, topology, decode) is
// reported as the store being unavailable.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrDuplicateUsername) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
