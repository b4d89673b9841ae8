package tasks_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	errorsfeature "github.com/dalemusser/volunteerhub/internal/app/features/errors"
	"github.com/dalemusser/volunteerhub/internal/app/features/tasks"
	assignmentstore "github.com/dalemusser/volunteerhub/internal/app/store/assignments"
	taskstore "github.com/dalemusser/volunteerhub/internal/app/store/tasks"
	"github.com/dalemusser/volunteerhub/internal/app/system/auth"
	"github.com/dalemusser/volunteerhub/internal/domain/models"
	"github.com/dalemusser/volunteerhub/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*tasks.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return tasks.NewHandler(db, errorsfeature.NewErrorLogger(logger), nil, logger), testutil.NewFixtures(t, db)
}

func jsonReq(t *testing.T, method, target string, body any, su *auth.SessionUser) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return testutil.AsUser(req, su)
}

type listResp struct {
	Tasks []tasks.TaskView `json:"tasks"`
	Stats tasks.Stats      `json:"stats"`
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) listResp {
	t.Helper()
	var out listResp
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestParseDueDate(t *testing.T) {
	if d, ok := tasks.ParseDueDate(""); !ok || d != nil {
		t.Errorf("empty: got %v, %v", d, ok)
	}
	d, ok := tasks.ParseDueDate("2024-03-05")
	if !ok || d == nil {
		t.Fatalf("date only rejected")
	}
	if want := time.Date(2024, 3, 5, 23, 59, 59, 0, time.UTC); !d.Equal(want) {
		t.Errorf("date only = %v, want %v", d, want)
	}
	d, ok = tasks.ParseDueDate("2024-03-05T10:00:00-05:00")
	if !ok || d.Hour() != 15 {
		t.Errorf("rfc3339 = %v, %v", d, ok)
	}
	if _, ok := tasks.ParseDueDate("next tuesday"); ok {
		t.Error("garbage accepted")
	}
}

func TestCreate_AssignsMembers(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Food Bank")
	admin := fx.CreateOrgAdmin(ctx, "admin@food.org", org.ID)
	fx.CreateVolunteer(ctx, "ann@food.org", "Ann", "Lee", org.ID)
	fx.CreateVolunteer(ctx, "bob@food.org", "Bob", "Ray", org.ID)

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, jsonReq(t, "POST", "/tasks", map[string]any{
		"title":            "Sort cans",
		"due_date":         "2099-01-01",
		"assign_to_emails": []string{"ANN@food.org", "bob@food.org"},
	}, testutil.SessionFor(admin, &org)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Task tasks.TaskView `json:"task"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Task.Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want medium default", out.Task.Priority)
	}
	if len(out.Task.Assignments) != 2 {
		t.Fatalf("assignments = %d, want 2", len(out.Task.Assignments))
	}
	if out.Task.Status != models.StatusAssigned {
		t.Errorf("status = %q", out.Task.Status)
	}
	if out.Task.Assignments[0].Name == "" {
		t.Error("assignee name missing")
	}
}

func TestCreate_RejectsOutsiders(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Food Bank")
	other := fx.CreateOrganization(ctx, "Shelter")
	admin := fx.CreateOrgAdmin(ctx, "admin@food.org", org.ID)
	fx.CreateVolunteer(ctx, "eve@shelter.org", "Eve", "Kim", other.ID)

	rec := httptest.NewRecorder()
	h.HandleCreate(rec, jsonReq(t, "POST", "/tasks", map[string]any{
		"title":            "Sort cans",
		"assign_to_emails": []string{"eve@shelter.org", "ghost@nowhere.org"},
	}, testutil.SessionFor(admin, &org)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	msg, _ := testutil.DecodeJSON(t, rec)["message"].(string)
	if !strings.Contains(msg, "eve@shelter.org") || !strings.Contains(msg, "ghost@nowhere.org") {
		t.Errorf("message %q should list both emails", msg)
	}

	n, _ := taskstore.New(fx.DB()).Count(ctx, &org.ID)
	if n != 0 {
		t.Errorf("task count = %d, want 0", n)
	}
}

func TestCreate_Validation(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := fx.CreateOrganization(ctx, "Food Bank")
	su := testutil.OrgAdminUser(org)

	cases := []map[string]any{
		{"title": ""},
		{"title": "ok", "priority": "whenever"},
		{"title": "ok", "due_date": "soon"},
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, jsonReq(t, "POST", "/tasks", body, su))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%v: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestList_VolunteerSeesOwnWithOverdue(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Food Bank")
	admin := fx.CreateOrgAdmin(ctx, "admin@food.org", org.ID)
	ann := fx.CreateVolunteer(ctx, "ann@food.org", "Ann", "Lee", org.ID)
	bob := fx.CreateVolunteer(ctx, "bob@food.org", "Bob", "Ray", org.ID)

	past := time.Now().Add(-48 * time.Hour)
	late := fx.CreateTask(ctx, "Late", org.ID, admin.ID, &past)
	fx.AssignTask(ctx, late, ann.ID, models.StatusAssigned)
	other := fx.CreateTask(ctx, "Bob only", org.ID, admin.ID, nil)
	fx.AssignTask(ctx, other, bob.ID, models.StatusAssigned)

	rec := httptest.NewRecorder()
	h.ServeList(rec, jsonReq(t, "GET", "/tasks", nil, testutil.SessionFor(ann, &org)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out := decodeList(t, rec)
	if len(out.Tasks) != 1 || out.Tasks[0].Title != "Late" {
		t.Fatalf("tasks = %+v", out.Tasks)
	}
	if out.Tasks[0].Status != models.StatusOverdue || !out.Tasks[0].IsOverdue {
		t.Errorf("status = %q, want overdue", out.Tasks[0].Status)
	}

	rec = httptest.NewRecorder()
	h.ServeList(rec, jsonReq(t, "GET", "/tasks?status=assigned", nil, testutil.SessionFor(ann, &org)))
	if got := decodeList(t, rec).Tasks; len(got) != 0 {
		t.Errorf("status=assigned should exclude overdue, got %d", len(got))
	}
}

func TestAdminList_StatsAndFilters(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Food Bank")
	admin := fx.CreateOrgAdmin(ctx, "admin@food.org", org.ID)
	ann := fx.CreateVolunteer(ctx, "ann@food.org", "Ann", "Lee", org.ID)
	bob := fx.CreateVolunteer(ctx, "bob@food.org", "Bob", "Ray", org.ID)

	past := time.Now().Add(-time.Hour)
	t1 := fx.CreateTask(ctx, "Done", org.ID, admin.ID, &past)
	fx.AssignTask(ctx, t1, ann.ID, models.StatusCompleted)
	t2 := fx.CreateTask(ctx, "Half", org.ID, admin.ID, nil)
	fx.AssignTask(ctx, t2, ann.ID, models.StatusCompleted)
	fx.AssignTask(ctx, t2, bob.ID, models.StatusAssigned)
	t3 := fx.CreateTask(ctx, "Late", org.ID, admin.ID, &past)
	fx.AssignTask(ctx, t3, bob.ID, models.StatusAssigned)

	rec := httptest.NewRecorder()
	h.ServeAdminList(rec, jsonReq(t, "GET", "/admin/tasks", nil, testutil.SessionFor(admin, &org)))
	out := decodeList(t, rec)
	want := tasks.Stats{Total: 3, Completed: 1, InProgress: 1, Overdue: 1}
	if out.Stats != want {
		t.Errorf("stats = %+v, want %+v", out.Stats, want)
	}

	rec = httptest.NewRecorder()
	h.ServeAdminList(rec, jsonReq(t, "GET", "/admin/tasks?assigned_to=bob@food.org", nil, testutil.SessionFor(admin, &org)))
	if got := decodeList(t, rec).Tasks; len(got) != 2 {
		t.Errorf("assigned_to filter: got %d tasks, want 2", len(got))
	}
}

func TestList_SuperAdminNeedsOrg(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := fx.CreateOrganization(ctx, "Food Bank")
	fx.CreateTask(ctx, "One", org.ID, org.ID, nil)

	rec := httptest.NewRecorder()
	h.ServeList(rec, jsonReq(t, "GET", "/tasks", nil, testutil.SuperAdminUser()))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("without org: status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeList(rec, jsonReq(t, "GET", "/tasks?organization_id="+org.ID.Hex(), nil, testutil.SuperAdminUser()))
	if got := decodeList(t, rec).Tasks; len(got) != 1 {
		t.Errorf("with org: got %d tasks", len(got))
	}
}

func TestUpdate_ClearsDueDate(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := fx.CreateOrganization(ctx, "Food Bank")
	admin := fx.CreateOrgAdmin(ctx, "admin@food.org", org.ID)
	due := time.Now().Add(24 * time.Hour)
	task := fx.CreateTask(ctx, "Old", org.ID, admin.ID, &due)

	req := jsonReq(t, "PUT", "/tasks/"+task.ID.Hex(), map[string]any{"title": "New", "due_date": ""}, testutil.SessionFor(admin, &org))
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, testutil.WithChiURLParam(req, "id", task.ID.Hex()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	got, err := taskstore.New(fx.DB()).GetInOrg(ctx, task.ID, org.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "New" || got.DueDate != nil {
		t.Errorf("got title %q due %v", got.Title, got.DueDate)
	}
}

func TestUpdate_OtherOrgNotFound(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := fx.CreateOrganization(ctx, "Food Bank")
	other := fx.CreateOrganization(ctx, "Shelter")
	task := fx.CreateTask(ctx, "Theirs", other.ID, other.ID, nil)

	req := jsonReq(t, "PUT", "/", map[string]any{"title": "Mine"}, testutil.OrgAdminUser(org))
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, testutil.WithChiURLParam(req, "id", task.ID.Hex()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDelete(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := fx.CreateOrganization(ctx, "Food Bank")
	admin := fx.CreateOrgAdmin(ctx, "admin@food.org", org.ID)
	ann := fx.CreateVolunteer(ctx, "ann@food.org", "Ann", "Lee", org.ID)
	su := testutil.SessionFor(admin, &org)

	done := fx.CreateTask(ctx, "Done", org.ID, admin.ID, nil)
	fx.AssignTask(ctx, done, ann.ID, models.StatusCompleted)
	open := fx.CreateTask(ctx, "Open", org.ID, admin.ID, nil)
	fx.AssignTask(ctx, open, ann.ID, models.StatusInProgress)

	rec := httptest.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(jsonReq(t, "DELETE", "/", nil, su), "id", done.ID.Hex()))
	if rec.Code != http.StatusConflict {
		t.Errorf("completed work: status = %d, want 409", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(jsonReq(t, "DELETE", "/", nil, su), "id", open.ID.Hex()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if _, err := assignmentstore.New(fx.DB()).Get(ctx, open.ID, ann.ID); err == nil {
		t.Error("assignment survived task deletion")
	}
}

func TestComplete(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := fx.CreateOrganization(ctx, "Food Bank")
	admin := fx.CreateOrgAdmin(ctx, "admin@food.org", org.ID)
	ann := fx.CreateVolunteer(ctx, "ann@food.org", "Ann", "Lee", org.ID)
	bob := fx.CreateVolunteer(ctx, "bob@food.org", "Bob", "Ray", org.ID)
	task := fx.CreateTask(ctx, "Sort", org.ID, admin.ID, nil)
	fx.AssignTask(ctx, task, ann.ID, models.StatusInProgress)
	su := testutil.SessionFor(admin, &org)

	body := map[string]any{"user_id": ann.ID.Hex(), "notes": "all sorted", "admin_feedback": "thanks"}
	rec := httptest.NewRecorder()
	h.HandleComplete(rec, testutil.WithChiURLParam(jsonReq(t, "POST", "/", body, su), "id", task.ID.Hex()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	a, err := assignmentstore.New(fx.DB()).Get(ctx, task.ID, ann.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != models.StatusCompleted || a.CompletedAt == nil || a.AdminFeedback != "thanks" {
		t.Errorf("assignment = %+v", a)
	}

	rec = httptest.NewRecorder()
	body["user_id"] = bob.ID.Hex()
	h.HandleComplete(rec, testutil.WithChiURLParam(jsonReq(t, "POST", "/", body, su), "id", task.ID.Hex()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unassigned user: status = %d, want 404", rec.Code)
	}
}

func TestStatus_OwnAssignmentOnly(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := fx.CreateOrganization(ctx, "Food Bank")
	admin := fx.CreateOrgAdmin(ctx, "admin@food.org", org.ID)
	ann := fx.CreateVolunteer(ctx, "ann@food.org", "Ann", "Lee", org.ID)
	bob := fx.CreateVolunteer(ctx, "bob@food.org", "Bob", "Ray", org.ID)
	task := fx.CreateTask(ctx, "Sort", org.ID, admin.ID, nil)
	fx.AssignTask(ctx, task, ann.ID, models.StatusAssigned)

	rec := httptest.NewRecorder()
	req := jsonReq(t, "PUT", "/", map[string]any{"status": "in_progress"}, testutil.SessionFor(ann, &org))
	h.HandleStatus(rec, testutil.WithChiURLParam(req, "id", task.ID.Hex()))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = jsonReq(t, "PUT", "/", map[string]any{"status": "in_progress"}, testutil.SessionFor(bob, &org))
	h.HandleStatus(rec, testutil.WithChiURLParam(req, "id", task.ID.Hex()))
	if rec.Code != http.StatusNotFound {
		t.Errorf("non-assignee: status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = jsonReq(t, "PUT", "/", map[string]any{"status": "overdue"}, testutil.SessionFor(ann, &org))
	h.HandleStatus(rec, testutil.WithChiURLParam(req, "id", task.ID.Hex()))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("overdue is derived: status = %d, want 400", rec.Code)
	}
}

func TestStatus_CompletedCannotBeReopened(t *testing.T) {
	h, fx := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org := fx.CreateOrganization(ctx, "Food Bank")
	admin := fx.CreateOrgAdmin(ctx, "admin@food.org", org.ID)
	ann := fx.CreateVolunteer(ctx, "ann@food.org", "Ann", "Lee", org.ID)
	task := fx.CreateTask(ctx, "Sort", org.ID, admin.ID, nil)
	fx.AssignTask(ctx, task, ann.ID, models.StatusInProgress)

	body := map[string]any{"user_id": ann.ID.Hex()}
	rec := httptest.NewRecorder()
	h.HandleComplete(rec, testutil.WithChiURLParam(jsonReq(t, "POST", "/", body, testutil.SessionFor(admin, &org)), "id", task.ID.Hex()))
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status = %d, body %s", rec.Code, rec.Body.String())
	}

	for _, status := range []string{"assigned", "in_progress"} {
		rec = httptest.NewRecorder()
		req := jsonReq(t, "PUT", "/", map[string]any{"status": status}, testutil.SessionFor(ann, &org))
		h.HandleStatus(rec, testutil.WithChiURLParam(req, "id", task.ID.Hex()))
		if rec.Code != http.StatusConflict {
			t.Errorf("%s: status = %d, want 409", status, rec.Code)
		}
	}

	rec = httptest.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(jsonReq(t, "DELETE", "/", nil, testutil.SessionFor(admin, &org)), "id", task.ID.Hex()))
	if rec.Code != http.StatusConflict {
		t.Errorf("delete after reopen attempt: status = %d, want 409", rec.Code)
	}
}
