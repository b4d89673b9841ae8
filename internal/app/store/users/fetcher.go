package userstore

import (
	"context"

	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/app/system/timeouts"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher so every request sees the user's
// current role and organization rather than what the token was minted with.
type Fetcher struct {
	users *mongo.Collection
	orgs  *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{
		users: db.Collection("users"),
		orgs:  db.Collection("organizations"),
	}
}

// FetchUser returns nil if the user is gone, belongs to a deactivated
// organization, or any error occurs.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&u); err != nil {
		return nil
	}

	su := &auth.SessionUser{
		ID:    u.ID.Hex(),
		Email: u.Email,
		Name:  models.DisplayName(u),
		Role:  u.Role,
	}
	if u.OrganizationID == nil {
		if models.RoleRequiresOrganization(u.Role) {
			return nil
		}
		return su
	}

	var org models.Organization
	proj := options.FindOne().SetProjection(bson.M{"name": 1, "is_active": 1})
	if err := f.orgs.FindOne(ctx, bson.M{"_id": u.OrganizationID}, proj).Decode(&org); err != nil {
		return nil
	}
	if !org.IsActive {
		return nil
	}
	su.OrganizationID = org.ID.Hex()
	su.OrganizationName = org.Name
	return su
}
