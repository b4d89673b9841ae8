package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RefreshToken records an issued refresh token by its jti so it can be
// rotated and revoked.
type RefreshToken struct {
	ID        string             `bson:"_id"` // jti
	UserID    primitive.ObjectID `bson:"user_id"`
	ExpiresAt time.Time          `bson:"expires_at"`
	RevokedAt *time.Time         `bson:"revoked_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	UserAgent string             `bson:"user_agent,omitempty"`
	IP        string             `bson:"ip,omitempty"`
}
