package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// OrgPassword is the shared password given to fixture organizations.
const OrgPassword = "orgpass123"

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// Hash hashes pw at the minimum bcrypt cost to keep tests fast.
func (f *Fixtures) Hash(pw string) string {
	f.t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	return string(h)
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert into %s: %v", coll, err)
	}
}

// CreateOrganization creates an active organization whose shared
// password is OrgPassword.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		ContactEmail: "contact@test.local",
		IsActive:     true,
		PasswordHash: f.Hash(OrgPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.insert(ctx, "organizations", org)
	return org
}

// CreateInactiveOrganization creates a deactivated organization.
func (f *Fixtures) CreateInactiveOrganization(ctx context.Context, name string) models.Organization {
	f.t.Helper()
	org := f.CreateOrganization(ctx, name)
	org.IsActive = false
	if _, err := f.db.Collection("organizations").UpdateByID(ctx, org.ID,
		map[string]any{"$set": map[string]any{"is_active": false}}); err != nil {
		f.t.Fatalf("deactivate organization: %v", err)
	}
	return org
}

// CreateUser creates a whitelisted user. password may be empty, in which
// case the user signs in with the organization password.
func (f *Fixtures) CreateUser(ctx context.Context, email, role string, orgID *primitive.ObjectID, password string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:             primitive.NewObjectID(),
		Email:          email,
		Role:           role,
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if password != "" {
		u.PasswordHash = f.Hash(password)
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateSuperAdmin creates a super admin with a personal password.
func (f *Fixtures) CreateSuperAdmin(ctx context.Context, email, password string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, email, models.RoleSuperAdmin, nil, password)
}

// CreateOrgAdmin creates a nonprofit admin in org.
func (f *Fixtures) CreateOrgAdmin(ctx context.Context, email string, orgID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, email, models.RoleNonprofitAdmin, &orgID, "")
}

// CreateVolunteer creates a volunteer in org with a profile name.
func (f *Fixtures) CreateVolunteer(ctx context.Context, email, first, last string, orgID primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:             primitive.NewObjectID(),
		Email:          email,
		Role:           models.RoleVolunteer,
		OrganizationID: &orgID,
		Profile:        models.UserProfile{FirstName: first, LastName: last},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateTask creates a task in org.
func (f *Fixtures) CreateTask(ctx context.Context, title string, orgID, createdBy primitive.ObjectID, due *time.Time) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Title:          title,
		TitleCI:        text.Fold(title),
		DueDate:        due,
		Priority:       models.PriorityMedium,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.insert(ctx, "tasks", task)
	return task
}

// AssignTask assigns task to user with status.
func (f *Fixtures) AssignTask(ctx context.Context, task models.Task, userID primitive.ObjectID, status string) models.Assignment {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Assignment{
		ID:             primitive.NewObjectID(),
		TaskID:         task.ID,
		UserID:         userID,
		OrganizationID: task.OrganizationID,
		Status:         status,
		AssignedAt:     now,
		UpdatedAt:      now,
	}
	if status == models.StatusCompleted {
		a.CompletedAt = &now
		a.CompletedBy = &userID
	}
	f.insert(ctx, "task_assignments", a)
	return a
}

// CreateEvent creates a volunteer event starting at start and lasting two hours.
func (f *Fixtures) CreateEvent(ctx context.Context, title string, orgID, createdBy primitive.ObjectID, start time.Time, maxVolunteers *int) models.CalendarEvent {
	f.t.Helper()

	now := time.Now().UTC()
	ev := models.CalendarEvent{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Title:          title,
		StartAt:        start.UTC(),
		EndAt:          start.Add(2 * time.Hour).UTC(),
		EventType:      models.EventTypeVolunteer,
		MaxVolunteers:  maxVolunteers,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.insert(ctx, "calendar_events", ev)
	return ev
}

// CreateRSVP records user's RSVP for ev.
func (f *Fixtures) CreateRSVP(ctx context.Context, ev models.CalendarEvent, userID primitive.ObjectID, status string) models.RSVP {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.RSVP{
		ID:             primitive.NewObjectID(),
		EventID:        ev.ID,
		UserID:         userID,
		OrganizationID: ev.OrganizationID,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.insert(ctx, "event_rsvps", r)
	return r
}

// CreateDocument creates document metadata. No blob is written.
func (f *Fixtures) CreateDocument(ctx context.Context, title, visibility string, orgID, uploadedBy primitive.ObjectID) models.Document {
	f.t.Helper()

	now := time.Now().UTC()
	d := models.Document{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Title:          title,
		TitleCI:        text.Fold(title),
		Category:       models.CategoryGeneral,
		Visibility:     visibility,
		FileName:       "file.pdf",
		MimeType:       "application/pdf",
		FileSize:       1024,
		StoragePath:    orgID.Hex() + "/" + primitive.NewObjectID().Hex() + ".pdf",
		UploadedBy:     uploadedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.insert(ctx, "documents", d)
	return d
}
