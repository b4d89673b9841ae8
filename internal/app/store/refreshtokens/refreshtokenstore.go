// internal/app/store/refreshtokens/refreshtokenstore.go
package refreshtokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotActive is returned when a refresh token is unknown, expired, or
// already revoked.
var ErrNotActive = errors.New("refresh token is not active")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("refresh_tokens")}
}

// Record stores a newly issued refresh token.
func (s *Store) Record(ctx context.Context, rt models.RefreshToken) error {
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, rt)
	return err
}

// Consume revokes jti if it is active for userID. Exactly one caller can
// consume a given token; every later call gets ErrNotActive.
func (s *Store) Consume(ctx context.Context, jti string, userID primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{
		"_id":        jti,
		"user_id":    userID,
		"revoked_at": bson.M{"$exists": false},
		"expires_at": bson.M{"$gt": now},
	}, bson.M{"$set": bson.M{"revoked_at": now}})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return ErrNotActive
	}
	return nil
}

// RevokeAllForUser revokes every active token of userID. Used when a
// rotated token is replayed and on user deletion.
func (s *Store) RevokeAllForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{
		"user_id":    userID,
		"revoked_at": bson.M{"$exists": false},
	}, bson.M{"$set": bson.M{"revoked_at": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CleanupExpired deletes expired tokens and tokens revoked before cutoff.
func (s *Store) CleanupExpired(ctx context.Context, revokedBefore time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"expires_at": bson.M{"$lte": time.Now().UTC()}},
		bson.M{"revoked_at": bson.M{"$lte": revokedBefore.UTC()}},
	}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
