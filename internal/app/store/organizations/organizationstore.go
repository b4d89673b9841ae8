// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/volunteerhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateOrganization = errors.New("an organization with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

// Create inserts org. The caller decides IsActive and supplies the
// already-hashed shared password.
func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	org.NameCI = text.Fold(org.Name)
	org.CreatedAt = now
	org.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, org); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, err
	}
	return org, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// GetByNameCI looks up an organization by folded name.
func (s *Store) GetByNameCI(ctx context.Context, name string) (models.Organization, error) {
	var org models.Organization
	if err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(name)}).Decode(&org); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// GetByIDs loads multiple organizations by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Organization, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// List returns organizations sorted by name. Inactive ones are included
// only when includeInactive is set.
func (s *Store) List(ctx context.Context, includeInactive bool) ([]models.Organization, error) {
	filter := bson.M{}
	if !includeInactive {
		filter["is_active"] = true
	}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Organization, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	orgs := []models.Organization{}
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// Update is a partial update. Nil fields are left alone.
type Update struct {
	Name         *string
	Description  *string
	ContactEmail *string
	ContactPhone *string
	Address      *string
	Website      *string
}

// Update applies upd and refreshes UpdatedAt. Returns mongo.ErrNoDocuments
// when id does not exist.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
		set["name_ci"] = text.Fold(*upd.Name)
	}
	str := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	str("description", upd.Description)
	str("contact_email", upd.ContactEmail)
	str("contact_phone", upd.ContactPhone)
	str("address", upd.Address)
	str("website", upd.Website)

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateOrganization
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetActive activates or deactivates an organization.
func (s *Store) SetActive(ctx context.Context, id primitive.ObjectID, active bool) error {
	return s.set(ctx, id, bson.M{"is_active": active})
}

// SetPasswordHash replaces the shared organization password.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.set(ctx, id, bson.M{"password_hash": hash})
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ExistsByNameCI reports whether name is taken, ignoring case and accents.
func (s *Store) ExistsByNameCI(ctx context.Context, name string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"name_ci": text.Fold(name)}, options.Count().SetLimit(1))
	return n > 0, err
}

// Count returns the number of organizations matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
