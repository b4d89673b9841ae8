package eventstore_test

import (
	"testing"
	"time"

	eventstore "github.com/dalemusser/volunteerhub/internal/app/store/events"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/volunteerhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_ListRangeAndUpcoming(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Events Org")
	creator := primitive.NewObjectID()
	fx.CreateEvent(ctx, "March drive", org.ID, creator, time.Date(2031, 3, 10, 9, 0, 0, 0, time.UTC), nil)
	fx.CreateEvent(ctx, "April gala", org.ID, creator, time.Date(2031, 4, 1, 18, 0, 0, 0, time.UTC), nil)
	fx.CreateEvent(ctx, "Past cleanup", org.ID, creator, time.Date(2020, 5, 1, 9, 0, 0, 0, time.UTC), nil)

	march, err := store.ListRange(ctx, org.ID,
		time.Date(2031, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2031, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListRange failed: %v", err)
	}
	if len(march) != 1 || march[0].Title != "March drive" {
		t.Errorf("march = %v", march)
	}

	upcoming, err := store.Upcoming(ctx, &org.ID, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 0)
	if err != nil {
		t.Fatalf("Upcoming failed: %v", err)
	}
	if len(upcoming) != 2 || upcoming[0].Title != "March drive" {
		t.Errorf("upcoming = %v", upcoming)
	}

	limited, err := store.Upcoming(ctx, nil, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("limited upcoming = %v, %v", limited, err)
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Update Events")
	max := 5
	ev := fx.CreateEvent(ctx, "Shift", org.ID, primitive.NewObjectID(), time.Now().Add(48*time.Hour), &max)

	link := "https://meet.example.org/abc"
	if err := store.Update(ctx, ev.ID, org.ID, eventstore.Update{VideoLink: &link, ClearMaxVolunteers: true}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, err := store.GetInOrg(ctx, ev.ID, org.ID)
	if err != nil {
		t.Fatalf("GetInOrg failed: %v", err)
	}
	if got.VideoLink != link {
		t.Errorf("video link = %q", got.VideoLink)
	}
	if got.MaxVolunteers != nil {
		t.Error("expected unlimited capacity")
	}

	if err := store.Update(ctx, ev.ID, primitive.NewObjectID(), eventstore.Update{VideoLink: &link}); err != mongo.ErrNoDocuments {
		t.Errorf("cross-org update should be ErrNoDocuments, got %v", err)
	}
}

func TestStore_LegacyMeetingMarkers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := eventstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Legacy Events")
	ev := fx.CreateEvent(ctx, "Board call", org.ID, primitive.NewObjectID(), time.Now(), nil)
	fx.CreateEvent(ctx, "Plain", org.ID, primitive.NewObjectID(), time.Now(), nil)
	desc := "Quarterly review\n\nJoin Meeting: https://zoom.example/j/1\nMeeting ID: 123 456\nPasscode: abc"
	if _, err := db.Collection("calendar_events").UpdateByID(ctx, ev.ID, bson.M{"$set": bson.M{"description": desc}}); err != nil {
		t.Fatalf("seed description: %v", err)
	}

	legacy, err := store.WithLegacyMeetingMarkers(ctx)
	if err != nil {
		t.Fatalf("WithLegacyMeetingMarkers failed: %v", err)
	}
	if len(legacy) != 1 {
		t.Fatalf("expected 1 legacy event, got %d", len(legacy))
	}

	clean, info := models.ExtractMeetingInfo(legacy[0].Description)
	if err := store.SaveMeetingInfo(ctx, legacy[0], clean, info); err != nil {
		t.Fatalf("SaveMeetingInfo failed: %v", err)
	}
	got, _ := store.GetInOrg(ctx, ev.ID, org.ID)
	if got.Description != "Quarterly review" {
		t.Errorf("description = %q", got.Description)
	}
	if got.VideoLink != "https://zoom.example/j/1" || got.MeetingID != "123 456" || got.MeetingPasscode != "abc" {
		t.Errorf("meeting fields = %q %q %q", got.VideoLink, got.MeetingID, got.MeetingPasscode)
	}
	if left, _ := store.WithLegacyMeetingMarkers(ctx); len(left) != 0 {
		t.Error("expected no legacy events after migration")
	}
}
