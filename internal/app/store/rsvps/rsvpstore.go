// internal/app/store/rsvps/rsvpstore.go
package rsvpstore

import (
	"context"
	"time"

	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("event_rsvps")}
}

// Get returns user's RSVP for event.
func (s *Store) Get(ctx context.Context, eventID, userID primitive.ObjectID) (models.RSVP, error) {
	var r models.RSVP
	if err := s.c.FindOne(ctx, bson.M{"event_id": eventID, "user_id": userID}).Decode(&r); err != nil {
		return models.RSVP{}, err
	}
	return r, nil
}

// Upsert records user's RSVP for ev. There is one row per (event, user);
// later calls change its status in place.
func (s *Store) Upsert(ctx context.Context, ev models.CalendarEvent, userID primitive.ObjectID, status, notes string) (models.RSVP, error) {
	now := time.Now().UTC()
	var r models.RSVP
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"event_id": ev.ID, "user_id": userID},
		bson.M{
			"$set": bson.M{
				"status":     status,
				"notes":      notes,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{
				"_id":             primitive.NewObjectID(),
				"organization_id": ev.OrganizationID,
				"created_at":      now,
			},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&r)
	if err != nil {
		return models.RSVP{}, err
	}
	return r, nil
}

// CountConfirmed returns the number of signed-up RSVPs for event.
func (s *Store) CountConfirmed(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"event_id": eventID, "status": models.RSVPSignedUp})
}

// ConfirmedCounts returns signed-up counts keyed by event.
func (s *Store) ConfirmedCounts(ctx context.Context, eventIDs []primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	out := make(map[primitive.ObjectID]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"event_id": bson.M{"$in": eventIDs},
			"status":   models.RSVPSignedUp,
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$event_id"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int64              `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}

// ListByEvent returns RSVPs of event with status (any when empty).
func (s *Store) ListByEvent(ctx context.Context, eventID primitive.ObjectID, status string) ([]models.RSVP, error) {
	q := bson.M{"event_id": eventID}
	if status != "" {
		q["status"] = status
	}
	return s.find(ctx, q, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

// ListByUser returns user's RSVPs with status (any when empty).
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID, status string) ([]models.RSVP, error) {
	q := bson.M{"user_id": userID}
	if status != "" {
		q["status"] = status
	}
	return s.find(ctx, q)
}

// StatusesFor returns user's RSVP status keyed by event.
func (s *Store) StatusesFor(ctx context.Context, userID primitive.ObjectID, eventIDs []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := s.find(ctx, bson.M{"user_id": userID, "event_id": bson.M{"$in": eventIDs}})
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.EventID] = r.Status
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.RSVP, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	rows := []models.RSVP{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteByEvent removes every RSVP of event.
func (s *Store) DeleteByEvent(ctx context.Context, eventID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByUser removes every RSVP of user.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
