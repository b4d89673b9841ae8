// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventLoginSuccess             = "login_success"
	EventLoginFailedNotWhitelisted = "login_failed_not_whitelisted"
	EventLoginFailedWrongPassword = "login_failed_wrong_password"
	EventLoginFailedOrgInactive   = "login_failed_org_inactive"
	EventLoginFailedRateLimit     = "login_failed_rate_limit"
	EventLogout                   = "logout"
	EventRefreshReused            = "refresh_token_reused"
	EventOrgPasswordChanged       = "org_password_changed"
)

// Admin event types
const (
	EventUserCreated      = "user_created"
	EventUserUpdated      = "user_updated"
	EventUserRoleChanged  = "user_role_changed"
	EventUserDeleted      = "user_deleted"
	EventOrgCreated       = "org_created"
	EventOrgUpdated       = "org_updated"
	EventOrgActivated     = "org_activated"
	EventOrgDeactivated   = "org_deactivated"
	EventTaskCreated      = "task_created"
	EventTaskUpdated      = "task_updated"
	EventTaskDeleted      = "task_deleted"
	EventTaskCompleted    = "task_completed"
	EventEventCreated     = "event_created"
	EventEventUpdated     = "event_updated"
	EventEventDeleted     = "event_deleted"
	EventDocumentUploaded = "document_uploaded"
	EventDocumentUpdated  = "document_updated"
	EventDocumentDeleted  = "document_deleted"
)

// Event represents an audit event.
type Event struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Timestamp      time.Time           `bson:"timestamp" json:"timestamp"`
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`

	Category  string `bson:"category" json:"category"`
	EventType string `bson:"event_type" json:"event_type"`

	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`   // affected user
	ActorID *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"` // who acted

	IP        string `bson:"ip" json:"-"`
	UserAgent string `bson:"user_agent,omitempty" json:"-"`

	Success       bool   `bson:"success" json:"success"`
	FailureReason string `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty" json:"details,omitempty"`
}

// QueryFilter narrows Query. Zero fields are ignored.
type QueryFilter struct {
	OrganizationID *primitive.ObjectID
	UserID         *primitive.ObjectID
	Category       string
	Since          *time.Time
	Limit          int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns events matching filter, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	q := bson.M{}
	if filter.OrganizationID != nil {
		q["organization_id"] = filter.OrganizationID
	}
	if filter.UserID != nil {
		q["user_id"] = filter.UserID
	}
	if filter.Category != "" {
		q["category"] = filter.Category
	}
	if filter.Since != nil {
		q["timestamp"] = bson.M{"$gte": *filter.Since}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	cur, err := s.c.Find(ctx, q, options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	events := []Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Recent returns the newest admin events, optionally within one organization.
func (s *Store) Recent(ctx context.Context, orgID *primitive.ObjectID, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{OrganizationID: orgID, Category: CategoryAdmin, Limit: limit})
}
