// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// index is one desired index. ttl < 0 means no expiry.
type index struct {
	name   string
	keys   bson.D
	unique bool
	ttl    int32
}

func asc(fields ...string) bson.D {
	d := make(bson.D, 0, len(fields))
	for _, f := range fields {
		if rest, ok := strings.CutPrefix(f, "-"); ok {
			d = append(d, bson.E{Key: rest, Value: -1})
			continue
		}
		d = append(d, bson.E{Key: f, Value: 1})
	}
	return d
}

func plain(name string, fields ...string) index  { return index{name: name, keys: asc(fields...), ttl: -1} }
func unique(name string, fields ...string) index { return index{name: name, keys: asc(fields...), unique: true, ttl: -1} }

// desired lists every collection's indexes. Field names prefixed with
// "-" sort descending.
var desired = []struct {
	coll    string
	indexes []index
}{
	{"users", []index{
		// The whitelist: one account per email, across all organizations.
		unique("uniq_users_email", "email"),
		// Volunteer directory and per-org role counts.
		plain("idx_users_org_role_email", "organization_id", "role", "email"),
		plain("idx_users_role_email_id", "role", "email", "_id"),
	}},
	{"organizations", []index{
		unique("uniq_orgs_nameci", "name_ci"),
		plain("idx_orgs_active_nameci_id", "is_active", "name_ci", "_id"),
	}},
	{"tasks", []index{
		plain("idx_tasks_org_created_id", "organization_id", "-created_at", "-_id"),
		plain("idx_tasks_org_due", "organization_id", "due_date"),
	}},
	{"task_assignments", []index{
		unique("uniq_assign_task_user", "task_id", "user_id"),
		plain("idx_assign_user_status", "user_id", "status"),
		plain("idx_assign_org_status", "organization_id", "status"),
	}},
	{"calendar_events", []index{
		plain("idx_events_org_start_id", "organization_id", "start_at", "_id"),
	}},
	{"event_rsvps", []index{
		// One RSVP row per (event, user); status flips in place.
		unique("uniq_rsvp_event_user", "event_id", "user_id"),
		plain("idx_rsvp_event_status", "event_id", "status"),
		plain("idx_rsvp_user_status", "user_id", "status"),
	}},
	{"documents", []index{
		plain("idx_docs_org_vis_pinned_created", "organization_id", "visibility", "-is_pinned", "-created_at"),
	}},
	{"refresh_tokens", []index{
		plain("idx_refresh_user", "user_id"),
		// Mongo reaps expired rows on its own; the cleanup job covers
		// revoked ones and deployments without a TTL monitor.
		{name: "ttl_refresh_expires", keys: asc("expires_at"), ttl: 0},
	}},
	{"audit_events", []index{
		plain("idx_audit_ts", "-timestamp"),
		plain("idx_audit_org_ts", "organization_id", "-timestamp"),
		plain("idx_audit_user_ts", "user_id", "-timestamp"),
	}},
}

// EnsureAll reconciles every collection's indexes at startup. It is
// idempotent. Problems are collected so all of them show in one error.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, d := range desired {
		for _, err := range reconcile(ctx, db.Collection(d.coll), d.indexes) {
			problems = append(problems, d.coll+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existing struct {
	Name               string `bson:"name"`
	Key                bson.D `bson:"key"`
	Unique             bool   `bson:"unique"`
	ExpireAfterSeconds *int32 `bson:"expireAfterSeconds"`
}

func (e existing) matches(ix index) bool {
	ttl := int32(-1)
	if e.ExpireAfterSeconds != nil {
		ttl = *e.ExpireAfterSeconds
	}
	return e.Name == ix.name && e.Unique == ix.unique && ttl == ix.ttl
}

func signature(keys bson.D) string {
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "%s:%v", k.Key, k.Value)
	}
	return b.String()
}

// reconcile creates missing indexes and replaces ones whose keys match
// but whose name or options drifted.
func reconcile(ctx context.Context, coll *mongo.Collection, want []index) []error {
	var current []existing
	if cur, err := coll.Indexes().List(ctx); err == nil {
		if err := cur.All(ctx, &current); err != nil {
			zap.L().Warn("decode existing indexes", zap.String("collection", coll.Name()), zap.Error(err))
		}
	}
	bySig := make(map[string]existing, len(current))
	for _, e := range current {
		bySig[signature(e.Key)] = e
	}

	var errs []error
	for _, ix := range want {
		sig := signature(ix.keys)
		if e, ok := bySig[sig]; ok {
			if e.matches(ix) {
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, e.Name); err != nil {
				errs = append(errs, fmt.Errorf("drop %s: %w", e.Name, err))
				continue
			}
			zap.L().Info("dropped drifted index", zap.String("collection", coll.Name()), zap.String("name", e.Name))
		}

		opts := options.Index().SetName(ix.name)
		if ix.unique {
			opts.SetUnique(true)
		}
		if ix.ttl >= 0 {
			opts.SetExpireAfterSeconds(ix.ttl)
		}
		if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: ix.keys, Options: opts}); err != nil {
			if ix.unique && mongo.IsDuplicateKeyError(err) {
				err = fmt.Errorf("duplicates block unique index on {%s}", sig)
			}
			errs = append(errs, fmt.Errorf("%s: %w", ix.name, err))
			zap.L().Warn("index ensure failed", zap.String("collection", coll.Name()), zap.String("name", ix.name), zap.Error(err))
			continue
		}
		zap.L().Info("index ensured", zap.String("collection", coll.Name()), zap.String("name", ix.name), zap.String("keys", sig))
	}
	return errs
}
