package taskstore_test

import (
	"testing"
	"time"

	taskstore "github.com/dalemusser/volunteerhub/internal/app/store/tasks"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/volunteerhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateAndGetInOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	orgID := primitive.NewObjectID()
	due := time.Date(2030, 1, 2, 15, 0, 0, 0, time.FixedZone("X", 3600))
	created, err := store.Create(ctx, models.Task{
		OrganizationID: orgID,
		Title:          "Stock Shelves",
		DueDate:        &due,
		CreatedBy:      primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Priority != models.PriorityMedium {
		t.Errorf("default priority = %q", created.Priority)
	}
	if created.TitleCI != "stock shelves" {
		t.Errorf("TitleCI = %q", created.TitleCI)
	}

	got, err := store.GetInOrg(ctx, created.ID, orgID)
	if err != nil {
		t.Fatalf("GetInOrg failed: %v", err)
	}
	if !got.DueDate.Equal(due) {
		t.Errorf("due = %v, want %v", got.DueDate, due)
	}

	if _, err := store.GetInOrg(ctx, created.ID, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("cross-org read should be ErrNoDocuments, got %v", err)
	}
}

func TestStore_ListByOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Tasks Org")
	other := fx.CreateOrganization(ctx, "Other Org")
	admin := fx.CreateOrgAdmin(ctx, "a@tasks.org", org.ID)
	first := fx.CreateTask(ctx, "First", org.ID, admin.ID, nil)
	fx.CreateTask(ctx, "Second", org.ID, admin.ID, nil)
	fx.CreateTask(ctx, "Elsewhere", other.ID, admin.ID, nil)

	tasks, err := store.ListByOrg(ctx, org.ID, taskstore.ListFilter{})
	if err != nil {
		t.Fatalf("ListByOrg failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	only, err := store.ListByOrg(ctx, org.ID, taskstore.ListFilter{IDs: []primitive.ObjectID{first.ID}})
	if err != nil {
		t.Fatalf("ListByOrg failed: %v", err)
	}
	if len(only) != 1 || only[0].ID != first.ID {
		t.Errorf("IDs filter = %v", only)
	}

	none, err := store.ListByOrg(ctx, org.ID, taskstore.ListFilter{Priority: models.PriorityUrgent})
	if err != nil {
		t.Fatalf("ListByOrg failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no urgent tasks, got %d", len(none))
	}
}

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Update Org")
	due := time.Now().Add(24 * time.Hour)
	task := fx.CreateTask(ctx, "Old", org.ID, primitive.NewObjectID(), &due)

	title := "New"
	prio := models.PriorityHigh
	if err := store.Update(ctx, task.ID, org.ID, taskstore.Update{Title: &title, Priority: &prio, ClearDueDate: true}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ := store.GetInOrg(ctx, task.ID, org.ID)
	if got.Title != "New" || got.Priority != models.PriorityHigh {
		t.Errorf("task = %+v", got)
	}
	if got.DueDate != nil {
		t.Error("expected due date cleared")
	}

	if err := store.Update(ctx, task.ID, primitive.NewObjectID(), taskstore.Update{Title: &title}); err != mongo.ErrNoDocuments {
		t.Errorf("cross-org update should be ErrNoDocuments, got %v", err)
	}
}

func TestStore_DeleteAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := taskstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Delete Org")
	task := fx.CreateTask(ctx, "Gone", org.ID, primitive.NewObjectID(), nil)
	fx.CreateTask(ctx, "Stays", org.ID, primitive.NewObjectID(), nil)

	n, err := store.Delete(ctx, task.ID, org.ID)
	if err != nil || n != 1 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	count, err := store.Count(ctx, &org.ID)
	if err != nil || count != 1 {
		t.Errorf("Count = %d, %v", count, err)
	}
	all, err := store.Count(ctx, nil)
	if err != nil || all != 1 {
		t.Errorf("global Count = %d, %v", all, err)
	}
}
