// internal/app/store/tasks/taskstore.go
package taskstore

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
	return &Store{c: db.Collection("tasks")}
}

// Create inserts task with a fresh ID and timestamps.
func (s *Store) Create(ctx context.Context, task models.Task) (models.Task, error) {
	now := time.Now().UTC()
	task.ID = primitive.NewObjectID()
	task.TitleCI = text.Fold(task.Title)
	if task.Priority == "" {
		task.Priority = models.PriorityMedium
	}
	if task.DueDate != nil {
		d := task.DueDate.UTC()
		task.DueDate = &d
	}
	task.CreatedAt = now
	task.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// GetInOrg loads a task scoped to its organization. A task from another
// organization reads as mongo.ErrNoDocuments.
func (s *Store) GetInOrg(ctx context.Context, id, orgID primitive.ObjectID) (models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "organization_id": orgID}).Decode(&t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByIDs loads tasks by id, in no particular order.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListFilter narrows ListByOrg. Zero fields are ignored.
type ListFilter struct {
	Priority string
	IDs      []primitive.ObjectID
}

// ListByOrg returns an organization's tasks, newest first.
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID, f ListFilter) ([]models.Task, error) {
	q := bson.M{"organization_id": orgID}
	if f.Priority != "" {
		q["priority"] = f.Priority
	}
	if f.IDs != nil {
		q["_id"] = bson.M{"$in": f.IDs}
	}
	return s.find(ctx, q, options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	tasks := []models.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update is a partial update. ClearDueDate removes the due date and wins
// over DueDate.
type Update struct {
	Title        *string
	Description  *string
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
}

// Update applies upd to a task in orgID.
func (s *Store) Update(ctx context.Context, id, orgID primitive.ObjectID, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
		set["title_ci"] = text.Fold(*upd.Title)
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	update := bson.M{"$set": set}
	switch {
	case upd.ClearDueDate:
		update["$unset"] = bson.M{"due_date": ""}
	case upd.DueDate != nil:
		set["due_date"] = upd.DueDate.UTC()
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "organization_id": orgID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a task. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id, orgID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "organization_id": orgID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of tasks in orgID, or across all organizations
// when orgID is nil.
func (s *Store) Count(ctx context.Context, orgID *primitive.ObjectID) (int64, error) {
	q := bson.M{}
	if orgID != nil {
		q["organization_id"] = *orgID
	}
	return s.c.CountDocuments(ctx, q)
}
