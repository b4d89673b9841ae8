// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/volunteerhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type collectionSpec struct {
	name   string
	schema bson.M // nil: create only
}

func collections() []collectionSpec {
	return []collectionSpec{
		{"organizations", orgsSchema()},
		{"users", usersSchema()},
		{"tasks", tasksSchema()},
		{"task_assignments", assignmentsSchema()},
		{"calendar_events", eventsSchema()},
		{"event_rsvps", rsvpsSchema()},
		{"documents", documentsSchema()},
		{"refresh_tokens", nil},
		{"audit_events", nil},
	}
}

// EnsureAll creates every collection the app uses and attaches its
// JSON-Schema validator. Servers without collMod validators (some
// DocumentDB versions) keep the collection unvalidated. All failures are
// reported together.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	existing := make(map[string]bool, len(names))
	for _, n := range names {
		existing[n] = true
	}

	var problems []string
	for _, c := range collections() {
		if !existing[c.name] {
			err := db.CreateCollection(ctx, c.name)
			switch {
			case err == nil:
				zap.L().Info("created collection", zap.String("collection", c.name))
			case !isCommandErr(err, []int32{48}, "already exists"):
				problems = append(problems, c.name+": "+err.Error())
				continue
			}
		}
		if c.schema == nil {
			continue
		}
		err := db.RunCommand(ctx, bson.D{
			{Key: "collMod", Value: c.name},
			{Key: "validator", Value: c.schema},
			{Key: "validationLevel", Value: "moderate"},
			{Key: "validationAction", Value: "error"},
		}).Err()
		switch {
		case err == nil:
		case isCommandErr(err, []int32{59, 115}, "no such command", "not implemented", "not supported"):
			zap.L().Info("validator skipped (unsupported)", zap.String("collection", c.name))
		default:
			problems = append(problems, c.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// isCommandErr matches a server error by code, or by message when the
// server returned no usable code.
func isCommandErr(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enumOf(values []string) bson.M {
	a := make(bson.A, 0, len(values))
	for _, v := range values {
		a = append(a, v)
	}
	return bson.M{"enum": a}
}

func schema(required []string, props bson.M) bson.M {
	req := make(bson.A, 0, len(required))
	for _, r := range required {
		req = append(req, r)
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   req,
			"properties": props,
		},
	}
}

func orgsSchema() bson.M {
	return schema([]string{"name", "name_ci", "is_active"}, bson.M{
		"name":      nonBlank,
		"name_ci":   nonBlank,
		"is_active": bson.M{"bsonType": "bool"},
	})
}

func usersSchema() bson.M {
	return schema([]string{"email", "role"}, bson.M{
		"email":           nonBlank,
		"role":            enumOf(models.AllRoles),
		"organization_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
		"profile":         bson.M{"bsonType": "object"},
	})
}

func tasksSchema() bson.M {
	return schema([]string{"organization_id", "title", "priority"}, bson.M{
		"organization_id": bson.M{"bsonType": "objectId"},
		"title":           nonBlank,
		"priority":        enumOf(models.AllPriorities),
		"due_date":        bson.M{"bsonType": bson.A{"date", "null"}},
	})
}

func assignmentsSchema() bson.M {
	return schema([]string{"task_id", "user_id", "organization_id", "status"}, bson.M{
		"task_id":         bson.M{"bsonType": "objectId"},
		"user_id":         bson.M{"bsonType": "objectId"},
		"organization_id": bson.M{"bsonType": "objectId"},
		"status":          enumOf(models.AllAssignmentStatuses),
	})
}

func eventsSchema() bson.M {
	return schema([]string{"organization_id", "title", "start_at", "end_at", "event_type"}, bson.M{
		"organization_id": bson.M{"bsonType": "objectId"},
		"title":           nonBlank,
		"start_at":        bson.M{"bsonType": "date"},
		"end_at":          bson.M{"bsonType": "date"},
		"event_type":      enumOf(models.AllEventTypes),
		"max_volunteers":  bson.M{"bsonType": bson.A{"int", "long", "null"}, "minimum": 1},
	})
}

func rsvpsSchema() bson.M {
	return schema([]string{"event_id", "user_id", "organization_id", "status"}, bson.M{
		"event_id":        bson.M{"bsonType": "objectId"},
		"user_id":         bson.M{"bsonType": "objectId"},
		"organization_id": bson.M{"bsonType": "objectId"},
		"status":          enumOf([]string{models.RSVPSignedUp, models.RSVPCancelled}),
	})
}

func documentsSchema() bson.M {
	return schema([]string{"organization_id", "title", "category", "visibility", "storage_path"}, bson.M{
		"organization_id": bson.M{"bsonType": "objectId"},
		"title":           nonBlank,
		"category":        enumOf(models.AllCategories),
		"visibility":      enumOf(models.AllVisibilities),
		"storage_path":    nonBlank,
		"file_size":       bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
	})
}
