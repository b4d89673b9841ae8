// internal/app/features/dashboard/common.go
package dashboard

import (
	"context"
	"time"

	assignmentstore "github.com/dalemusser/volunteerhub/internal/app/store/assignments"
	documentstore "github.com/dalemusser/volunteerhub/internal/app/store/documents"
	eventstore "github.com/dalemusser/volunteerhub/internal/app/store/events"
	rsvpstore "github.com/dalemusser/volunteerhub/internal/app/store/rsvps"
	taskstore "github.com/dalemusser/volunteerhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// EventItem is an upcoming event with its signup state.
type EventItem struct {
	models.CalendarEvent
	ConfirmedSignups int64  `json:"confirmed_signups"`
	CanSignup        bool   `json:"can_signup"`
	UserRSVPStatus   string `json:"user_rsvp_status,omitempty"`
}

// ActivityItem is one recent task completion.
type ActivityItem struct {
	TaskID         primitive.ObjectID `json:"task_id"`
	TaskTitle      string             `json:"task_title"`
	OrganizationID primitive.ObjectID `json:"organization_id"`
	UserID         primitive.ObjectID `json:"user_id"`
	VolunteerName  string             `json:"volunteer_name"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
}

// upcomingEvents returns the next events of orgID (all organizations when
// nil). When userID is set each item carries that user's RSVP status.
func upcomingEvents(ctx context.Context, db *mongo.Database, orgID, userID *primitive.ObjectID, now time.Time) ([]EventItem, error) {
	evs, err := eventstore.New(db).Upcoming(ctx, orgID, now, listSize)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(evs))
	for i, ev := range evs {
		ids[i] = ev.ID
	}

	rsvps := rsvpstore.New(db)
	counts, err := rsvps.ConfirmedCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	var mine map[primitive.ObjectID]string
	if userID != nil {
		if mine, err = rsvps.StatusesFor(ctx, *userID, ids); err != nil {
			return nil, err
		}
	}

	out := make([]EventItem, 0, len(evs))
	for _, ev := range evs {
		n := counts[ev.ID]
		out = append(out, EventItem{
			CalendarEvent:    ev,
			ConfirmedSignups: n,
			CanSignup:        models.CanSignup(ev.MaxVolunteers, n),
			UserRSVPStatus:   mine[ev.ID],
		})
	}
	return out, nil
}

// recentDocuments returns the newest documents role may see, pinned first.
func recentDocuments(ctx context.Context, db *mongo.Database, orgID primitive.ObjectID, role string) ([]models.Document, error) {
	return documentstore.New(db).List(ctx, orgID, documentstore.ListFilter{
		Visibilities: models.VisibilitiesFor(role),
		Limit:        listSize,
	})
}

// recentActivity returns the latest completions in orgID (all
// organizations when nil) with task titles and volunteer names.
func recentActivity(ctx context.Context, db *mongo.Database, orgID *primitive.ObjectID) ([]ActivityItem, error) {
	done, err := assignmentstore.New(db).RecentlyCompleted(ctx, orgID, listSize)
	if err != nil {
		return nil, err
	}
	if len(done) == 0 {
		return []ActivityItem{}, nil
	}

	taskIDs := make([]primitive.ObjectID, 0, len(done))
	userIDs := make([]primitive.ObjectID, 0, len(done))
	for _, a := range done {
		taskIDs = append(taskIDs, a.TaskID)
		userIDs = append(userIDs, a.UserID)
	}
	tasks, err := taskstore.New(db).GetByIDs(ctx, taskIDs)
	if err != nil {
		return nil, err
	}
	users, err := userstore.New(db).GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	titles := make(map[primitive.ObjectID]string, len(tasks))
	for _, t := range tasks {
		titles[t.ID] = t.Title
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]ActivityItem, 0, len(done))
	for _, a := range done {
		u, ok := byID[a.UserID]
		if !ok {
			u = models.User{ID: a.UserID}
		}
		out = append(out, ActivityItem{
			TaskID:         a.TaskID,
			TaskTitle:      titles[a.TaskID],
			OrganizationID: a.OrganizationID,
			UserID:         a.UserID,
			VolunteerName:  models.DisplayName(u),
			CompletedAt:    a.CompletedAt,
		})
	}
	return out, nil
}
