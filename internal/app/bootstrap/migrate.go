// internal/app/bootstrap/migrate.go
package bootstrap

import (
	"context"

	eventstore "github.com/dalemusser/volunteerhub/internal/app/store/events"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// migrateUserNotes moves profile fields out of the old notes JSON blob.
func migrateUserNotes(ctx context.Context, db *mongo.Database) (int, error) {
	store := userstore.New(db)
	users, err := store.WithLegacyNotes(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, u := range users {
		if !models.MigrateLegacyNotes(&u) {
			continue
		}
		if err := store.SaveMigrated(ctx, u); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// migrateMeetingMarkers lifts meeting links that were embedded in event
// descriptions into their own fields.
func migrateMeetingMarkers(ctx context.Context, db *mongo.Database) (int, error) {
	store := eventstore.New(db)
	events, err := store.WithLegacyMeetingMarkers(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, ev := range events {
		desc, info := models.ExtractMeetingInfo(ev.Description)
		if desc == ev.Description && info.Empty() {
			continue
		}
		if err := store.SaveMeetingInfo(ctx, ev, desc, info); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
