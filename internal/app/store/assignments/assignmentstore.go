// internal/app/store/assignments/assignmentstore.go
package assignmentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/volunteerhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateAssignment is returned when a volunteer is already assigned.
	ErrDuplicateAssignment = errors.New("volunteer is already assigned to this task")
	// ErrAssignmentCompleted is returned when an assignee tries to move a
	// completed assignment to another status.
	ErrAssignmentCompleted = errors.New("assignment is already completed")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("task_assignments")}
}

// CreateMany assigns task to each user in status "assigned".
func (s *Store) CreateMany(ctx context.Context, task models.Task, userIDs []primitive.ObjectID) ([]models.Assignment, error) {
	if len(userIDs) == 0 {
		return []models.Assignment{}, nil
	}
	now := time.Now().UTC()
	out := make([]models.Assignment, 0, len(userIDs))
	docs := make([]any, 0, len(userIDs))
	for _, uid := range userIDs {
		a := models.Assignment{
			ID:             primitive.NewObjectID(),
			TaskID:         task.ID,
			UserID:         uid,
			OrganizationID: task.OrganizationID,
			Status:         models.StatusAssigned,
			AssignedAt:     now,
			UpdatedAt:      now,
		}
		out = append(out, a)
		docs = append(docs, a)
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateAssignment
		}
		return nil, err
	}
	return out, nil
}

// Get returns the assignment of task to user.
func (s *Store) Get(ctx context.Context, taskID, userID primitive.ObjectID) (models.Assignment, error) {
	var a models.Assignment
	if err := s.c.FindOne(ctx, bson.M{"task_id": taskID, "user_id": userID}).Decode(&a); err != nil {
		return models.Assignment{}, err
	}
	return a, nil
}

// ListByTasks returns every assignment of the given tasks grouped by task.
func (s *Store) ListByTasks(ctx context.Context, taskIDs []primitive.ObjectID) (map[primitive.ObjectID][]models.Assignment, error) {
	out := make(map[primitive.ObjectID][]models.Assignment, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}
	rows, err := s.find(ctx, bson.M{"task_id": bson.M{"$in": taskIDs}},
		options.Find().SetSort(bson.D{{Key: "assigned_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	for _, a := range rows {
		out[a.TaskID] = append(out[a.TaskID], a)
	}
	return out, nil
}

// ListByUser returns user's assignments, optionally filtered by stored status.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID, status string) ([]models.Assignment, error) {
	q := bson.M{"user_id": userID}
	if status != "" {
		q["status"] = status
	}
	return s.find(ctx, q, options.Find().SetSort(bson.D{{Key: "assigned_at", Value: -1}}))
}

// RecentlyCompleted returns the latest completions, optionally in one org.
func (s *Store) RecentlyCompleted(ctx context.Context, orgID *primitive.ObjectID, limit int64) ([]models.Assignment, error) {
	q := bson.M{"status": models.StatusCompleted}
	if orgID != nil {
		q["organization_id"] = *orgID
	}
	return s.find(ctx, q, options.Find().
		SetSort(bson.D{{Key: "completed_at", Value: -1}}).
		SetLimit(limit))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Assignment, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	rows := []models.Assignment{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Complete marks the assignment completed. An assignment that does not
// exist cannot be completed: mongo.ErrNoDocuments.
func (s *Store) Complete(ctx context.Context, taskID, userID, completedBy primitive.ObjectID, notes, feedback string) (models.Assignment, error) {
	now := time.Now().UTC()
	set := bson.M{
		"status":       models.StatusCompleted,
		"completed_at": now,
		"completed_by": completedBy,
		"updated_at":   now,
	}
	if notes != "" {
		set["completion_notes"] = notes
	}
	if feedback != "" {
		set["admin_feedback"] = feedback
	}
	return s.findAndSet(ctx, taskID, userID, bson.M{"$set": set})
}

// SetStatus moves the assignee's own assignment to status. A completed
// assignment stays completed: ErrAssignmentCompleted.
func (s *Store) SetStatus(ctx context.Context, taskID, userID primitive.ObjectID, status, notes string) (models.Assignment, error) {
	if status == models.StatusCompleted {
		return s.Complete(ctx, taskID, userID, userID, notes, "")
	}
	set := bson.M{"status": status, "updated_at": time.Now().UTC()}
	if notes != "" {
		set["completion_notes"] = notes
	}
	var a models.Assignment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"task_id": taskID, "user_id": userID, "status": bson.M{"$ne": models.StatusCompleted}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.Get(ctx, taskID, userID); gerr == nil {
			return models.Assignment{}, ErrAssignmentCompleted
		}
	}
	if err != nil {
		return models.Assignment{}, err
	}
	return a, nil
}

func (s *Store) findAndSet(ctx context.Context, taskID, userID primitive.ObjectID, update bson.M) (models.Assignment, error) {
	var a models.Assignment
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"task_id": taskID, "user_id": userID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		return models.Assignment{}, err
	}
	return a, nil
}

// HasCompleted reports whether any assignment of task is completed.
func (s *Store) HasCompleted(ctx context.Context, taskID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"task_id": taskID, "status": models.StatusCompleted}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteOpenByTask removes the task's assignments that are not completed.
func (s *Store) DeleteOpenByTask(ctx context.Context, taskID primitive.ObjectID) (int64, error) {
	return s.deleteOpen(ctx, bson.M{"task_id": taskID})
}

// DeleteOpenByUser removes the user's assignments that are not completed.
// Completed ones stay as the record of the work done.
func (s *Store) DeleteOpenByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.deleteOpen(ctx, bson.M{"user_id": userID})
}

func (s *Store) deleteOpen(ctx context.Context, filter bson.M) (int64, error) {
	filter["status"] = bson.M{"$ne": models.StatusCompleted}
	res, err := s.c.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByStatus returns stored-status counts, optionally narrowed to an
// organization or a user.
func (s *Store) CountByStatus(ctx context.Context, orgID, userID *primitive.ObjectID) (map[string]int64, error) {
	match := bson.M{}
	if orgID != nil {
		match["organization_id"] = *orgID
	}
	if userID != nil {
		match["user_id"] = *userID
	}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
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
			Status string `bson:"_id"`
			N      int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Status] = row.N
	}
	return out, cur.Err()
}
