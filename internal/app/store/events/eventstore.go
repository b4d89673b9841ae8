// internal/app/store/events/eventstore.go
package eventstore

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
	return &Store{c: db.Collection("calendar_events")}
}

// Create inserts ev with a fresh ID and timestamps.
func (s *Store) Create(ctx context.Context, ev models.CalendarEvent) (models.CalendarEvent, error) {
	now := time.Now().UTC()
	ev.ID = primitive.NewObjectID()
	ev.StartAt = ev.StartAt.UTC()
	ev.EndAt = ev.EndAt.UTC()
	if ev.EventType == "" {
		ev.EventType = models.EventTypeVolunteer
	}
	ev.CreatedAt = now
	ev.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		return models.CalendarEvent{}, err
	}
	return ev, nil
}

// GetInOrg loads an event scoped to its organization.
func (s *Store) GetInOrg(ctx context.Context, id, orgID primitive.ObjectID) (models.CalendarEvent, error) {
	var ev models.CalendarEvent
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "organization_id": orgID}).Decode(&ev); err != nil {
		return models.CalendarEvent{}, err
	}
	return ev, nil
}

// GetByIDs loads events by id.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.CalendarEvent, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, byStart())
}

// ListRange returns events of orgID starting in [from, to), by start time.
func (s *Store) ListRange(ctx context.Context, orgID primitive.ObjectID, from, to time.Time) ([]models.CalendarEvent, error) {
	return s.find(ctx, bson.M{
		"organization_id": orgID,
		"start_at":        bson.M{"$gte": from.UTC(), "$lt": to.UTC()},
	}, byStart())
}

// ListAll returns every event of orgID by start time.
func (s *Store) ListAll(ctx context.Context, orgID primitive.ObjectID) ([]models.CalendarEvent, error) {
	return s.find(ctx, bson.M{"organization_id": orgID}, byStart())
}

// Upcoming returns events that have not ended by now, soonest first.
// orgID nil means all organizations. limit <= 0 means no limit.
func (s *Store) Upcoming(ctx context.Context, orgID *primitive.ObjectID, now time.Time, limit int64) ([]models.CalendarEvent, error) {
	q := bson.M{"end_at": bson.M{"$gte": now.UTC()}}
	if orgID != nil {
		q["organization_id"] = *orgID
	}
	opts := byStart()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.find(ctx, q, opts)
}

func byStart() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "start_at", Value: 1}, {Key: "_id", Value: 1}})
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.CalendarEvent, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	rows := []models.CalendarEvent{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Update is a partial update. ClearMaxVolunteers makes the event unlimited
// and wins over MaxVolunteers.
type Update struct {
	Title              *string
	Description        *string
	Location           *string
	StartAt            *time.Time
	EndAt              *time.Time
	AllDay             *bool
	EventType          *string
	MaxVolunteers      *int
	ClearMaxVolunteers bool
	VideoLink          *string
	MeetingID          *string
	MeetingPasscode    *string
}

// Update applies upd to an event in orgID.
func (s *Store) Update(ctx context.Context, id, orgID primitive.ObjectID, upd Update) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	str := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	str("title", upd.Title)
	str("description", upd.Description)
	str("location", upd.Location)
	str("event_type", upd.EventType)
	str("video_link", upd.VideoLink)
	str("meeting_id", upd.MeetingID)
	str("meeting_passcode", upd.MeetingPasscode)
	if upd.StartAt != nil {
		set["start_at"] = upd.StartAt.UTC()
	}
	if upd.EndAt != nil {
		set["end_at"] = upd.EndAt.UTC()
	}
	if upd.AllDay != nil {
		set["all_day"] = *upd.AllDay
	}

	update := bson.M{"$set": set}
	switch {
	case upd.ClearMaxVolunteers:
		update["$unset"] = bson.M{"max_volunteers": ""}
	case upd.MaxVolunteers != nil:
		set["max_volunteers"] = *upd.MaxVolunteers
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

// Delete removes an event. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id, orgID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "organization_id": orgID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of events in orgID, or in all organizations.
func (s *Store) Count(ctx context.Context, orgID *primitive.ObjectID) (int64, error) {
	q := bson.M{}
	if orgID != nil {
		q["organization_id"] = *orgID
	}
	return s.c.CountDocuments(ctx, q)
}

// WithLegacyMeetingMarkers returns events whose description still embeds
// meeting details as text markers.
func (s *Store) WithLegacyMeetingMarkers(ctx context.Context) ([]models.CalendarEvent, error) {
	return s.find(ctx, bson.M{"description": bson.M{
		"$regex":   `(Join Meeting|Meeting ID|Passcode):`,
		"$options": "i",
	}})
}

// SaveMeetingInfo stores the cleaned description and first-class meeting
// fields. Existing non-empty fields are kept.
func (s *Store) SaveMeetingInfo(ctx context.Context, ev models.CalendarEvent, description string, info models.MeetingInfo) error {
	set := bson.M{"description": description, "updated_at": time.Now().UTC()}
	if ev.VideoLink == "" && info.VideoLink != "" {
		set["video_link"] = info.VideoLink
	}
	if ev.MeetingID == "" && info.MeetingID != "" {
		set["meeting_id"] = info.MeetingID
	}
	if ev.MeetingPasscode == "" && info.Passcode != "" {
		set["meeting_passcode"] = info.Passcode
	}
	_, err := s.c.UpdateByID(ctx, ev.ID, bson.M{"$set": set})
	return err
}
