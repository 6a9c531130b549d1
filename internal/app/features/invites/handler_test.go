package invites_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/fundio/internal/app/features/invites"
	invitestore "github.com/dalemusser/fundio/internal/app/store/invites"
	workspacestore "github.com/dalemusser/fundio/internal/app/store/workspaces"
	"github.com/dalemusser/fundio/internal/domain/models"
	"github.com/dalemusser/fundio/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(db *mongo.Database) *invites.Handler {
	return invites.NewHandler(invitestore.New(db), workspacestore.New(db), zap.NewNop())
}

func jsonBody(t *testing.T, v any) *strings.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return strings.NewReader(string(b))
}

func TestHandleCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ana := fx.CreateUser(ctx, "Ana", "ana@test.com")
	ws := fx.CreateWorkspace(ctx, "Casa", ana)

	req := httptest.NewRequest(http.MethodPost, "/invites", jsonBody(t, map[string]string{
		"workspaceId": ws.ID.Hex(),
		"email":       "Bia@Test.com",
		"role":        models.RoleMember,
	}))
	req = testutil.WithUser(req, testutil.FromModel(ana))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var inv models.WorkspaceInvite
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if inv.Email != "bia@test.com" {
		t.Errorf("email not normalized: %q", inv.Email)
	}
	if inv.Token == "" || inv.Status != models.InviteStatusPending {
		t.Errorf("unexpected invite: %+v", inv)
	}
	if inv.WorkspaceName != "Casa" {
		t.Errorf("workspaceName: got %q", inv.WorkspaceName)
	}
}

func TestHandleCreate_MemberForbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ana := fx.CreateUser(ctx, "Ana", "ana@test.com")
	bia := fx.CreateUser(ctx, "Bia", "bia@test.com")
	ws := fx.CreateWorkspace(ctx, "Casa", ana)
	fx.AddMember(ctx, ws.ID, bia, models.RoleMember)

	req := httptest.NewRequest(http.MethodPost, "/invites", jsonBody(t, map[string]string{
		"workspaceId": ws.ID.Hex(),
		"email":       "carla@test.com",
		"role":        models.RoleMember,
	}))
	req = testutil.WithUser(req, testutil.FromModel(bia))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("a plain member must not invite, got %d", rec.Code)
	}
}

func TestHandleCreate_AlreadyMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ana := fx.CreateUser(ctx, "Ana", "ana@test.com")
	ws := fx.CreateWorkspace(ctx, "Casa", ana)

	req := httptest.NewRequest(http.MethodPost, "/invites", jsonBody(t, map[string]string{
		"workspaceId": ws.ID.Hex(),
		"email":       "ana@test.com",
		"role":        models.RoleMember,
	}))
	req = testutil.WithUser(req, testutil.FromModel(ana))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("inviting an existing member must 409, got %d", rec.Code)
	}
}

func TestHandleCreate_DuplicatePending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ana := fx.CreateUser(ctx, "Ana", "ana@test.com")
	ws := fx.CreateWorkspace(ctx, "Casa", ana)

	store := invitestore.New(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	if _, err := store.Create(ctx, models.WorkspaceInvite{
		WorkspaceID: ws.ID, WorkspaceName: ws.Name,
		Email: "bia@test.com", Role: models.RoleMember, InvitedBy: ana.ID,
	}); err != nil {
		t.Fatalf("seed invite: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/invites", jsonBody(t, map[string]string{
		"workspaceId": ws.ID.Hex(),
		"email":       "bia@test.com",
		"role":        models.RoleMember,
	}))
	req = testutil.WithUser(req, testutil.FromModel(ana))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("a duplicate pending invite must 409, got %d", rec.Code)
	}
}

func TestHandleCreate_InvalidRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ana := fx.CreateUser(ctx, "Ana", "ana@test.com")
	ws := fx.CreateWorkspace(ctx, "Casa", ana)

	req := httptest.NewRequest(http.MethodPost, "/invites", jsonBody(t, map[string]string{
		"workspaceId": ws.ID.Hex(),
		"email":       "bia@test.com",
		"role":        models.RoleOwner,
	}))
	req = testutil.WithUser(req, testutil.FromModel(ana))
	rec := httptest.NewRecorder()
	h.HandleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("OWNER must not be invitable, got %d", rec.Code)
	}
}

func TestHandlePending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ana := fx.CreateUser(ctx, "Ana", "ana@test.com")
	bia := fx.CreateUser(ctx, "Bia", "bia@test.com")
	ws := fx.CreateWorkspace(ctx, "Casa", ana)

	store := invitestore.New(db)
	if _, err := store.Create(ctx, models.WorkspaceInvite{
		WorkspaceID: ws.ID, WorkspaceName: ws.Name,
		Email: "bia@test.com", Role: models.RoleMember, InvitedBy: ana.ID,
	}); err != nil {
		t.Fatalf("seed invite: %v", err)
	}

	req := testutil.WithUser(testutil.NewRequest(http.MethodGet, "/invites/pending"), testutil.FromModel(bia))
	rec := httptest.NewRecorder()
	h.HandlePending(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var list []models.WorkspaceInvite
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(list) != 1 || list[0].WorkspaceName != "Casa" {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestHandlePending_EmptyIsArray(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)

	req := testutil.WithUser(testutil.NewRequest(http.MethodGet, "/invites/pending"), testutil.SomeUser())
	rec := httptest.NewRecorder()
	h.HandlePending(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected an empty JSON array, got %q", body)
	}
}

func TestHandleAccept(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ana := fx.CreateUser(ctx, "Ana", "ana@test.com")
	bia := fx.CreateUser(ctx, "Bia", "bia@test.com")
	ws := fx.CreateWorkspace(ctx, "Casa", ana)

	store := invitestore.New(db)
	inv, err := store.Create(ctx, models.WorkspaceInvite{
		WorkspaceID: ws.ID, WorkspaceName: ws.Name,
		Email: "bia@test.com", Role: models.RoleAdmin, InvitedBy: ana.ID,
	})
	if err != nil {
		t.Fatalf("seed invite: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/invites/accept", jsonBody(t, map[string]string{"token": inv.Token}))
	req = testutil.WithUser(req, testutil.FromModel(bia))
	rec := httptest.NewRecorder()
	h.HandleAccept(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got, err := workspacestore.New(db).GetByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("reload workspace: %v", err)
	}
	if got.MemberRole(bia.ID) != models.RoleAdmin {
		t.Errorf("expected the invited role, got %q", got.MemberRole(bia.ID))
	}

	resolved, err := store.GetByToken(ctx, inv.Token)
	if err != nil {
		t.Fatalf("reload invite: %v", err)
	}
	if resolved.Status != models.InviteStatusAccepted {
		t.Errorf("status: got %q", resolved.Status)
	}
}

func TestHandleAccept_WrongAddressee(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ana := fx.CreateUser(ctx, "Ana", "ana@test.com")
	ws := fx.CreateWorkspace(ctx, "Casa", ana)

	store := invitestore.New(db)
	inv, err := store.Create(ctx, models.WorkspaceInvite{
		WorkspaceID: ws.ID, WorkspaceName: ws.Name,
		Email: "bia@test.com", Role: models.RoleMember, InvitedBy: ana.ID,
	})
	if err != nil {
		t.Fatalf("seed invite: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/invites/accept", jsonBody(t, map[string]string{"token": inv.Token}))
	req = testutil.WithUser(req, testutil.SomeUser())
	rec := httptest.NewRecorder()
	h.HandleAccept(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("someone else's invite must read as not found, got %d", rec.Code)
	}
}

func TestHandleAccept_Twice(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ana := fx.CreateUser(ctx, "Ana", "ana@test.com")
	bia := fx.CreateUser(ctx, "Bia", "bia@test.com")
	ws := fx.CreateWorkspace(ctx, "Casa", ana)

	store := invitestore.New(db)
	inv, err := store.Create(ctx, models.WorkspaceInvite{
		WorkspaceID: ws.ID, WorkspaceName: ws.Name,
		Email: "bia@test.com", Role: models.RoleMember, InvitedBy: ana.ID,
	})
	if err != nil {
		t.Fatalf("seed invite: %v", err)
	}

	accept := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/invites/accept", jsonBody(t, map[string]string{"token": inv.Token}))
		req = testutil.WithUser(req, testutil.FromModel(bia))
		rec := httptest.NewRecorder()
		h.HandleAccept(rec, req)
		return rec
	}

	if rec := accept(); rec.Code != http.StatusOK {
		t.Fatalf("first accept: got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := accept(); rec.Code != http.StatusConflict {
		t.Fatalf("second accept must 409, got %d", rec.Code)
	}
}

func TestHandleAccept_WorkspaceGoneLeavesInvitePending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ana := fx.CreateUser(ctx, "Ana", "ana@test.com")
	bia := fx.CreateUser(ctx, "Bia", "bia@test.com")
	ws := fx.CreateWorkspace(ctx, "Casa", ana)

	store := invitestore.New(db)
	inv, err := store.Create(ctx, models.WorkspaceInvite{
		WorkspaceID: ws.ID, WorkspaceName: ws.Name,
		Email: "bia@test.com", Role: models.RoleMember, InvitedBy: ana.ID,
	})
	if err != nil {
		t.Fatalf("seed invite: %v", err)
	}
	if err := workspacestore.New(db).Delete(ctx, ws.ID); err != nil {
		t.Fatalf("delete workspace: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/invites/accept", jsonBody(t, map[string]string{"token": inv.Token}))
	req = testutil.WithUser(req, testutil.FromModel(bia))
	rec := httptest.NewRecorder()
	h.HandleAccept(rec, req)

	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410, got %d: %s", rec.Code, rec.Body.String())
	}

	// A failed accept must not consume the invite.
	got, err := store.GetByToken(ctx, inv.Token)
	if err != nil {
		t.Fatalf("reload invite: %v", err)
	}
	if got.Status != models.InviteStatusPending {
		t.Errorf("status: got %q, want %q", got.Status, models.InviteStatusPending)
	}
}

func TestHandleDecline(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ana := fx.CreateUser(ctx, "Ana", "ana@test.com")
	bia := fx.CreateUser(ctx, "Bia", "bia@test.com")
	ws := fx.CreateWorkspace(ctx, "Casa", ana)

	store := invitestore.New(db)
	inv, err := store.Create(ctx, models.WorkspaceInvite{
		WorkspaceID: ws.ID, WorkspaceName: ws.Name,
		Email: "bia@test.com", Role: models.RoleMember, InvitedBy: ana.ID,
	})
	if err != nil {
		t.Fatalf("seed invite: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/invites/decline", jsonBody(t, map[string]string{"token": inv.Token}))
	req = testutil.WithUser(req, testutil.FromModel(bia))
	rec := httptest.NewRecorder()
	h.HandleDecline(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	got, err := workspacestore.New(db).GetByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("reload workspace: %v", err)
	}
	if got.IsMember(bia.ID) {
		t.Error("declining must not join the workspace")
	}
	resolved, err := store.GetByToken(ctx, inv.Token)
	if err != nil {
		t.Fatalf("reload invite: %v", err)
	}
	if resolved.Status != models.InviteStatusDeclined {
		t.Errorf("status: got %q", resolved.Status)
	}
}

func TestHandleAccept_MissingToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newTestHandler(db)

	req := httptest.NewRequest(http.MethodPost, "/invites/accept", strings.NewReader(`{}`))
	req = testutil.WithUser(req, testutil.SomeUser())
	rec := httptest.NewRecorder()
	h.HandleAccept(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
