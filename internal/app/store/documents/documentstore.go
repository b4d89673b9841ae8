// internal/app/store/documents/documentstore.go
package documentstore

import (
	"context"
	"time"

	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("documents")}
}

// Create inserts metadata for an already-stored blob. The caller chooses
// the ID so the blob key can embed it.
func (s *Store) Create(ctx context.Context, d models.Document) (models.Document, error) {
	now := time.Now().UTC()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	d.TitleCI = text.Fold(d.Title)
	if d.Category == "" {
		d.Category = models.CategoryGeneral
	}
	if d.Visibility == "" {
		d.Visibility = models.VisibilityAll
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		return models.Document{}, err
	}
	return d, nil
}

// GetInOrg loads a document scoped to its organization.
func (s *Store) GetInOrg(ctx context.Context, id, orgID primitive.ObjectID) (models.Document, error) {
	var d models.Document
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "organization_id": orgID}).Decode(&d); err != nil {
		return models.Document{}, err
	}
	return d, nil
}

// ListFilter narrows List. Zero fields are ignored.
type ListFilter struct {
	Visibilities []string
	Category     string
	Limit        int64
}

// List returns documents of orgID, pinned first then newest first.
func (s *Store) List(ctx context.Context, orgID primitive.ObjectID, f ListFilter) ([]models.Document, error) {
	q := bson.M{"organization_id": orgID}
	if len(f.Visibilities) > 0 {
		q["visibility"] = bson.M{"$in": f.Visibilities}
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "is_pinned", Value: -1},
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	rows := []models.Document{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Update is a partial metadata update.
type Update struct {
	Title       *string
	Description *string
	Category    *string
	Visibility  *string
	IsPinned    *bool
}

// Update applies upd to a document in orgID.
func (s *Store) Update(ctx context.Context, id, orgID primitive.ObjectID, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
		set["title_ci"] = text.Fold(*upd.Title)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Visibility != nil {
		set["visibility"] = *upd.Visibility
	}
	if upd.IsPinned != nil {
		set["is_pinned"] = *upd.IsPinned
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "organization_id": orgID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes document metadata and returns what was deleted so the
// caller can remove the blob.
func (s *Store) Delete(ctx context.Context, id, orgID primitive.ObjectID) (models.Document, error) {
	var d models.Document
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id, "organization_id": orgID}).Decode(&d); err != nil {
		return models.Document{}, err
	}
	return d, nil
}

// Count returns the number of documents in orgID, or in all organizations.
func (s *Store) Count(ctx context.Context, orgID *primitive.ObjectID) (int64, error) {
	q := bson.M{}
	if orgID != nil {
		q["organization_id"] = *orgID
	}
	return s.c.CountDocuments(ctx, q)
}
