// internal/app/system/orgutil/counts.go
package orgutil

import (
	"context"

	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// Collections is satisfied by *mongo.Database.
type Collections interface {
	Collection(name string, opts ...*options.CollectionOptions) *mongo.Collection
}

// CountPerOrg counts the documents of coll matching filter, grouped by
// organization_id. filter may be nil.
func CountPerOrg(ctx context.Context, db Collections, coll string, filter bson.M) (map[primitive.ObjectID]int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	cur, err := db.Collection(coll).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{"_id": "$organization_id", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Org primitive.ObjectID `bson:"_id"`
		N   int64              `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]int64, len(rows))
	for _, r := range rows {
		out[r.Org] = r.N
	}
	return out, nil
}

// OrgCounts returns user, task and document counts for each id. Every id
// is present in the result, zero-filled when it has nothing.
func OrgCounts(ctx context.Context, db Collections, ids []primitive.ObjectID) (map[primitive.ObjectID]models.OrganizationCounts, error) {
	out := make(map[primitive.ObjectID]models.OrganizationCounts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	in := bson.M{"organization_id": bson.M{"$in": ids}}

	var users, tasks, docs map[primitive.ObjectID]int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { users, err = CountPerOrg(gctx, db, "users", in); return })
	g.Go(func() (err error) { tasks, err = CountPerOrg(gctx, db, "tasks", in); return })
	g.Go(func() (err error) { docs, err = CountPerOrg(gctx, db, "documents", in); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		out[id] = models.OrganizationCounts{
			UserCount:     users[id],
			TaskCount:     tasks[id],
			DocumentCount: docs[id],
		}
	}
	return out, nil
}
