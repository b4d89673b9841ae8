package userstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/volunteerhub/internal/app/system/normalize"
	"github.com/dalemusser/volunteerhub/internal/app/system/paging"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when the email is already whitelisted.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	ErrBadRole        = errors.New(`role must be "super_admin"|"nonprofit_admin"|"volunteer"`)
	ErrOrgNeeded      = errors.New("nonprofit_admin/volunteer must have organization_id")
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns
// mongo.ErrNoDocuments if the email is not whitelisted.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmails returns the users whose email is in emails.
func (s *Store) GetByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"email": bson.M{"$in": normalize.Emails(emails)}})
}

// GetByIDs returns the users whose id is in ids.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// Create inserts a new user after normalizing and validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)

	if !models.IsValidRole(u.Role) {
		return models.User{}, ErrBadRole
	}
	if models.RoleRequiresOrganization(u.Role) && u.OrganizationID == nil {
		return models.User{}, ErrOrgNeeded
	}
	if u.Role == models.RoleSuperAdmin {
		u.OrganizationID = nil
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// ListFilter narrows List. Zero fields are ignored.
type ListFilter struct {
	OrganizationID *primitive.ObjectID
	Role           string
	Query          string // email prefix
}

func (f ListFilter) bson() bson.M {
	q := bson.M{}
	if f.OrganizationID != nil {
		q["organization_id"] = *f.OrganizationID
	}
	if f.Role != "" {
		q["role"] = f.Role
	}
	if f.Query != "" {
		q["email"] = bson.M{"$regex": "^" + regexp.QuoteMeta(normalize.Email(f.Query))}
	}
	return q
}

// List returns a keyset page of users ordered by email.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) ([]models.User, paging.Page, error) {
	cfg := paging.ConfigureKeyset(p)
	filter := f.bson()
	if win := cfg.KeysetWindow("email"); win != nil {
		filter = bson.M{"$and": bson.A{filter, win}}
	}

	find := options.Find()
	cfg.ApplyToFind(find, "email")
	rows, err := s.find(ctx, filter, find)
	if err != nil {
		return nil, paging.Page{}, err
	}
	rows, page := paging.Finish(rows, p, cfg,
		func(u models.User) string { return u.Email },
		func(u models.User) primitive.ObjectID { return u.ID })
	return rows, page, nil
}

// ListByOrg returns every user of org with role (any role when empty),
// ordered by email.
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID, role string) ([]models.User, error) {
	return s.find(ctx, ListFilter{OrganizationID: &orgID, Role: role}.bson(),
		options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
}

// Count returns the number of users matching f.
func (s *Store) Count(ctx context.Context, f ListFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.bson())
}

// CountByRole returns user counts keyed by role.
func (s *Store) CountByRole(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$role"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			Role string `bson:"_id"`
			N    int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Role] = row.N
	}
	return out, cur.Err()
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.User, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile replaces the profile and, when adminNotes is non-nil, the
// admin notes. Legacy notes are cleared since the profile is now canonical.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, p models.UserProfile, adminNotes *string) error {
	set := bson.M{
		"profile":    p,
		"updated_at": time.Now().UTC(),
	}
	if adminNotes != nil {
		set["admin_notes"] = *adminNotes
	}
	return s.updateOne(ctx, id, bson.M{"$set": set, "$unset": bson.M{"notes": ""}})
}

// SetRole changes role and organization together. Super admins have no
// organization.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string, orgID *primitive.ObjectID) error {
	role = normalize.Role(role)
	if !models.IsValidRole(role) {
		return ErrBadRole
	}
	update := bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}}
	switch {
	case !models.RoleRequiresOrganization(role):
		update["$unset"] = bson.M{"organization_id": ""}
	case orgID == nil:
		return ErrOrgNeeded
	default:
		update["$set"].(bson.M)["organization_id"] = *orgID
	}
	return s.updateOne(ctx, id, update)
}

// SetPasswordHash sets a personal password.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()}})
}

// TouchLastLogin records a successful sign-in.
func (s *Store) TouchLastLogin(ctx context.Context, id primitive.ObjectID) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"last_login_at": time.Now().UTC()}})
}

func (s *Store) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a user by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// WithLegacyNotes returns users whose profile still lives in notes JSON.
func (s *Store) WithLegacyNotes(ctx context.Context) ([]models.User, error) {
	return s.find(ctx, bson.M{"notes": bson.M{"$exists": true, "$ne": ""}})
}

// SaveMigrated writes the result of models.MigrateLegacyNotes.
func (s *Store) SaveMigrated(ctx context.Context, u models.User) error {
	return s.updateOne(ctx, u.ID, bson.M{
		"$set": bson.M{
			"profile":     u.Profile,
			"admin_notes": u.AdminNotes,
			"updated_at":  time.Now().UTC(),
		},
		"$unset": bson.M{"notes": ""},
	})
}
