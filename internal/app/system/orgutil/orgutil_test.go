package orgutil_test

import (
	"context"
	"testing"

	"github.com/dalemusser/volunteerhub/internal/app/system/orgutil"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/volunteerhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCountPerOrg(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Count Org")
	fx.CreateVolunteer(ctx, "a@test.local", "A", "One", org.ID)
	fx.CreateVolunteer(ctx, "b@test.local", "B", "Two", org.ID)
	fx.CreateOrgAdmin(ctx, "admin@test.local", org.ID)

	other := fx.CreateOrganization(ctx, "Other Org")
	fx.CreateVolunteer(ctx, "c@test.local", "C", "Three", other.ID)

	counts, err := orgutil.CountPerOrg(ctx, db, "users", bson.M{"role": models.RoleVolunteer})
	if err != nil {
		t.Fatalf("CountPerOrg failed: %v", err)
	}
	if counts[org.ID] != 2 || counts[other.ID] != 1 {
		t.Errorf("volunteer counts = %v, want 2 and 1", counts)
	}
}

func TestOrgCounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	busy := fx.CreateOrganization(ctx, "Busy")
	empty := fx.CreateOrganization(ctx, "Empty")
	admin := fx.CreateOrgAdmin(ctx, "admin@busy.local", busy.ID)
	fx.CreateVolunteer(ctx, "v@busy.local", "V", "One", busy.ID)
	fx.CreateTask(ctx, "Sort donations", busy.ID, admin.ID, nil)
	fx.CreateDocument(ctx, "Handbook", models.VisibilityAll, busy.ID, admin.ID)

	counts, err := orgutil.OrgCounts(ctx, db, []primitive.ObjectID{busy.ID, empty.ID})
	if err != nil {
		t.Fatalf("OrgCounts failed: %v", err)
	}
	got := counts[busy.ID]
	if got.UserCount != 2 || got.TaskCount != 1 || got.DocumentCount != 1 {
		t.Errorf("busy counts = %+v", got)
	}
	if c, ok := counts[empty.ID]; !ok || c != (models.OrganizationCounts{}) {
		t.Errorf("empty counts = %+v, present=%v", c, ok)
	}
}

func TestOrgCounts_NoIDs(t *testing.T) {
	counts, err := orgutil.OrgCounts(context.Background(), nil, nil)
	if err != nil || len(counts) != 0 {
		t.Errorf("expected empty result, got %v, %v", counts, err)
	}
}
