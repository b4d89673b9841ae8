package userstore_test

import (
	"fmt"
	"testing"

	userstore "github.com/dalemusser/volunteerhub/internal/app/store/users"
	"github.com/dalemusser/volunteerhub/internal/app/system/indexes"
	"github.com/dalemusser/volunteerhub/internal/app/system/paging"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/volunteerhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_SuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	orgID := primitive.NewObjectID()
	created, err := store.Create(ctx, models.User{
		Email:          "  Root@Example.COM ",
		Role:           "Super-Admin",
		OrganizationID: &orgID,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "root@example.com" {
		t.Errorf("email = %q", created.Email)
	}
	if created.Role != models.RoleSuperAdmin {
		t.Errorf("role = %q", created.Role)
	}
	if created.OrganizationID != nil {
		t.Error("super admin should not have organization_id")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.User{Email: "v@x.org", Role: models.RoleVolunteer}); err != userstore.ErrOrgNeeded {
		t.Errorf("expected ErrOrgNeeded, got %v", err)
	}
	if _, err := store.Create(ctx, models.User{Email: "w@x.org", Role: "wizard"}); err != userstore.ErrBadRole {
		t.Errorf("expected ErrBadRole, got %v", err)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	orgID := primitive.NewObjectID()
	u := models.User{Email: "dup@x.org", Role: models.RoleVolunteer, OrganizationID: &orgID}
	if _, err := store.Create(ctx, u); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	u.Email = "DUP@x.org"
	if _, err := store.Create(ctx, u); err != userstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Lookup")
	v := fx.CreateVolunteer(ctx, "vol@lookup.org", "Val", "Ng", org.ID)

	got, err := store.GetByEmail(ctx, "VOL@lookup.org")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.ID != v.ID {
		t.Errorf("id = %s, want %s", got.ID.Hex(), v.ID.Hex())
	}

	if _, err := store.GetByEmail(ctx, "nobody@lookup.org"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}

	many, err := store.GetByEmails(ctx, []string{"vol@lookup.org", "nobody@lookup.org"})
	if err != nil {
		t.Fatalf("GetByEmails failed: %v", err)
	}
	if len(many) != 1 {
		t.Errorf("expected 1 match, got %d", len(many))
	}
}

func TestStore_List_KeysetPaging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Pager")
	for i := 0; i < 5; i++ {
		fx.CreateVolunteer(ctx, fmt.Sprintf("u%d@pager.org", i), "U", fmt.Sprint(i), org.ID)
	}
	fx.CreateSuperAdmin(ctx, "root@pager.org", "pw-123456")

	f := userstore.ListFilter{OrganizationID: &org.ID}
	first, page, err := store.List(ctx, f, paging.Params{Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(first) != 2 || first[0].Email != "u0@pager.org" {
		t.Fatalf("first page = %v", first)
	}
	if !page.HasNext || page.HasPrev {
		t.Errorf("page = %+v", page)
	}

	second, page2, err := store.List(ctx, f, paging.Params{Limit: 2, After: page.NextCursor})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(second) != 2 || second[0].Email != "u2@pager.org" {
		t.Fatalf("second page = %v", second)
	}
	if !page2.HasPrev {
		t.Error("expected HasPrev on second page")
	}

	back, _, err := store.List(ctx, f, paging.Params{Limit: 2, Before: page2.PrevCursor})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(back) != 2 || back[0].Email != "u0@pager.org" || back[1].Email != "u1@pager.org" {
		t.Errorf("back page = %v", back)
	}

	q, _, err := store.List(ctx, userstore.ListFilter{Query: "U4"}, paging.Params{Limit: 10})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(q) != 1 || q[0].Email != "u4@pager.org" {
		t.Errorf("query result = %v", q)
	}
}

func TestStore_UpdateProfile_ClearsLegacyNotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Profiles")
	v := fx.CreateVolunteer(ctx, "p@profiles.org", "", "", org.ID)
	if _, err := db.Collection("users").UpdateByID(ctx, v.ID, bson.M{"$set": bson.M{"notes": `{"firstName":"Old"}`}}); err != nil {
		t.Fatalf("seed notes: %v", err)
	}

	notes := "reliable on weekends"
	err := store.UpdateProfile(ctx, v.ID, models.UserProfile{FirstName: "Pat", Phone: "555-0100"}, &notes)
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	got, _ := store.GetByID(ctx, v.ID)
	if got.Profile.FirstName != "Pat" || got.Profile.Phone != "555-0100" {
		t.Errorf("profile = %+v", got.Profile)
	}
	if got.AdminNotes != notes {
		t.Errorf("admin notes = %q", got.AdminNotes)
	}
	if got.Notes != "" {
		t.Errorf("legacy notes should be cleared, got %q", got.Notes)
	}
}

func TestStore_SetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Roles")
	v := fx.CreateVolunteer(ctx, "r@roles.org", "R", "S", org.ID)

	if err := store.SetRole(ctx, v.ID, models.RoleNonprofitAdmin, &org.ID); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	got, _ := store.GetByID(ctx, v.ID)
	if got.Role != models.RoleNonprofitAdmin {
		t.Errorf("role = %q", got.Role)
	}

	if err := store.SetRole(ctx, v.ID, models.RoleSuperAdmin, nil); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	got, _ = store.GetByID(ctx, v.ID)
	if got.OrganizationID != nil {
		t.Error("promotion to super admin should drop organization")
	}

	if err := store.SetRole(ctx, v.ID, models.RoleVolunteer, nil); err != userstore.ErrOrgNeeded {
		t.Errorf("expected ErrOrgNeeded, got %v", err)
	}
	if err := store.SetRole(ctx, primitive.NewObjectID(), models.RoleSuperAdmin, nil); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_CountByRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Counts")
	fx.CreateVolunteer(ctx, "a@counts.org", "A", "A", org.ID)
	fx.CreateVolunteer(ctx, "b@counts.org", "B", "B", org.ID)
	fx.CreateOrgAdmin(ctx, "admin@counts.org", org.ID)

	counts, err := store.CountByRole(ctx)
	if err != nil {
		t.Fatalf("CountByRole failed: %v", err)
	}
	if counts[models.RoleVolunteer] != 2 || counts[models.RoleNonprofitAdmin] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestStore_LegacyMigrationRoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Legacy")
	v := fx.CreateVolunteer(ctx, "l@legacy.org", "", "", org.ID)
	if _, err := db.Collection("users").UpdateByID(ctx, v.ID, bson.M{"$set": bson.M{
		"notes": `{"firstName":"Lee","lastName":"Ortiz","adminNotes":"prefers mornings"}`,
	}}); err != nil {
		t.Fatalf("seed notes: %v", err)
	}

	legacy, err := store.WithLegacyNotes(ctx)
	if err != nil {
		t.Fatalf("WithLegacyNotes failed: %v", err)
	}
	if len(legacy) != 1 {
		t.Fatalf("expected 1 legacy user, got %d", len(legacy))
	}
	u := legacy[0]
	if !models.MigrateLegacyNotes(&u) {
		t.Fatal("expected migration to change the user")
	}
	if err := store.SaveMigrated(ctx, u); err != nil {
		t.Fatalf("SaveMigrated failed: %v", err)
	}

	got, _ := store.GetByID(ctx, v.ID)
	if got.Profile.FirstName != "Lee" || got.Profile.LastName != "Ortiz" || got.AdminNotes != "prefers mornings" {
		t.Errorf("migrated = %+v / %q", got.Profile, got.AdminNotes)
	}
	if left, _ := store.WithLegacyNotes(ctx); len(left) != 0 {
		t.Error("expected no legacy users after migration")
	}
}
