package metricsstore

import (
	"context"

	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals shown on the admin and super admin
// dashboards.
type Counts struct {
	Organizations       int64 `json:"organizations,omitempty"`
	ActiveOrganizations int64 `json:"active_organizations,omitempty"`
	Admins              int64 `json:"admins"`
	Volunteers          int64 `json:"volunteers"`
	Tasks               int64 `json:"tasks"`
	Events              int64 `json:"events"`
	Documents           int64 `json:"documents"`
}

// FetchDashboardCounts returns dashboard totals for orgID, or across every
// organization when orgID is nil. Organization totals are only filled in
// the global case.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database, orgID *primitive.ObjectID) Counts {
	var out Counts

	scoped := func(extra bson.M) bson.M {
		f := bson.M{}
		for k, v := range extra {
			f[k] = v
		}
		if orgID != nil {
			f["organization_id"] = *orgID
		}
		return f
	}
	count := func(coll string, filter bson.M, dst *int64) {
		if n, err := db.Collection(coll).CountDocuments(ctx, filter); err == nil {
			*dst = n
		}
	}

	if orgID == nil {
		count("organizations", bson.M{}, &out.Organizations)
		count("organizations", bson.M{"is_active": true}, &out.ActiveOrganizations)
	}
	count("users", scoped(bson.M{"role": models.RoleNonprofitAdmin}), &out.Admins)
	count("users", scoped(bson.M{"role": models.RoleVolunteer}), &out.Volunteers)
	count("tasks", scoped(nil), &out.Tasks)
	count("calendar_events", scoped(nil), &out.Events)
	count("documents", scoped(nil), &out.Documents)

	return out
}

// Tally is one volunteer's activity in their organization.
type Tally struct {
	Assigned  int64 `json:"tasks_assigned"`
	Completed int64 `json:"tasks_completed"`
	Signups   int64 `json:"event_signups"`
}

// VolunteerTallies returns per-user assignment and signup totals within
// orgID. Users with no activity are absent from the map.
func VolunteerTallies(ctx context.Context, db *mongo.Database, orgID primitive.ObjectID) (map[primitive.ObjectID]Tally, error) {
	out := map[primitive.ObjectID]Tally{}

	type row struct {
		UserID    primitive.ObjectID `bson:"_id"`
		Total     int64              `bson:"total"`
		Completed int64              `bson:"completed"`
	}

	cur, err := db.Collection("task_assignments").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"organization_id": orgID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$user_id",
			"total": bson.M{"$sum": 1},
			"completed": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.StatusCompleted}}, 1, 0},
			}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	var assigned []row
	if err := cur.All(ctx, &assigned); err != nil {
		return nil, err
	}
	for _, r := range assigned {
		out[r.UserID] = Tally{Assigned: r.Total, Completed: r.Completed}
	}

	cur, err = db.Collection("event_rsvps").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"organization_id": orgID, "status": models.RSVPSignedUp}}},
		{{Key: "$group", Value: bson.M{"_id": "$user_id", "total": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	var signups []row
	if err := cur.All(ctx, &signups); err != nil {
		return nil, err
	}
	for _, r := range signups {
		t := out[r.UserID]
		t.Signups = r.Total
		out[r.UserID] = t
	}

	return out, nil
}
