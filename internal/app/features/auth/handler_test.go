package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authfeature "github.com/dalemusser/fundio/internal/app/features/auth"
	userstore "github.com/dalemusser/fundio/internal/app/store/users"
	sysauth "github.com/dalemusser/fundio/internal/app/system/auth"
	"github.com/dalemusser/fundio/internal/app/system/authutil"
	"github.com/dalemusser/fundio/internal/app/system/credential"
	"github.com/dalemusser/fundio/internal/app/system/selection"
	"github.com/dalemusser/fundio/internal/app/system/session"
	"github.com/dalemusser/fundio/internal/app/system/token"
	"github.com/dalemusser/fundio/internal/domain/models"
	"github.com/dalemusser/fundio/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*authfeature.Handler, *userstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	users := userstore.New(db)
	tokens := sysauth.NewManager([]byte("test-secret"), 7, logger)
	sessions := session.NewManager(tokens.Credentials, selection.New([]byte("0123456789abcdef0123456789abcdef")), logger)

	return authfeature.NewHandler(users, tokens, sessions, logger), users
}

func jsonRequest(t *testing.T, target string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(string(b)))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func createLocalUser(t *testing.T, users *userstore.Store, name, email, password string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	hash, err := authutil.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	u, err := users.Create(ctx, models.User{Name: name, Email: email, PasswordHash: hash})
	if err != nil {
		t.Fatalf("Create user failed: %v", err)
	}
	return u
}

func TestSignUp_Success(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleSignUp(rec, jsonRequest(t, "/auth/sign-up", map[string]string{
		"name":     "Ana Silva",
		"email":    "ana@example.com",
		"password": "segredo77",
	}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	id, ok := token.Decode(resp.AccessToken)
	if !ok {
		t.Fatal("expected a decodable access token")
	}
	if id.Email != "ana@example.com" || id.FirstName != "Ana" {
		t.Errorf("unexpected identity: %+v", id)
	}

	// The credential cookie must carry the same token.
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == credential.CookieName && c.Value == resp.AccessToken {
			found = true
		}
	}
	if !found {
		t.Error("expected the credential cookie to be set to the access token")
	}
}

func TestSignUp_ValidationErrors(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleSignUp(rec, jsonRequest(t, "/auth/sign-up", map[string]string{
		"name":     "Al",
		"email":    "not-an-email",
		"password": "123",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Message []string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if len(body.Message) != 3 {
		t.Errorf("expected 3 validation messages, got %v", body.Message)
	}
}

func TestSignUp_SanitizesName(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleSignUp(rec, jsonRequest(t, "/auth/sign-up", map[string]string{
		"name":     "<script>alert(1)</script>Ana Silva",
		"email":    "ana@example.com",
		"password": "segredo77",
	}))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	id, _ := token.Decode(resp.AccessToken)
	if id.FirstName != "Ana" {
		t.Errorf("expected markup stripped from the name, got %q", id.FirstName)
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	h, users := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := users.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	createLocalUser(t, users, "Ana", "ana@example.com", "segredo77")

	rec := httptest.NewRecorder()
	h.HandleSignUp(rec, jsonRequest(t, "/auth/sign-up", map[string]string{
		"name":     "Ana Outra",
		"email":    "ana@example.com",
		"password": "segredo77",
	}))

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestSignIn_Success(t *testing.T) {
	h, users := newTestHandler(t)
	createLocalUser(t, users, "Ana Silva", "ana@example.com", "segredo77")

	st := session.NewState()
	st.Initialize(nil, nil)
	r := session.WithTestState(jsonRequest(t, "/auth/sign-in", map[string]string{
		"email":    "ana@example.com",
		"password": "segredo77",
	}), st)

	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	snap := st.Snapshot()
	if !snap.IsAuthenticated || snap.User == nil || snap.User.Email != "ana@example.com" {
		t.Errorf("expected the session state to reflect the login, got %+v", snap)
	}
	if snap.User.Name != "Ana" {
		t.Errorf("expected the first name in state, got %q", snap.User.Name)
	}
	if snap.SelectedWorkspace != nil {
		t.Error("a fresh login with no saved selection must have no workspace")
	}
}

func TestSignIn_RestoresOwnSavedSelection(t *testing.T) {
	h, users := newTestHandler(t)
	u := createLocalUser(t, users, "Ana Silva", "ana@example.com", "segredo77")

	saved := httptest.NewRecorder()
	if err := h.Sessions.Selection.Save(saved, models.Summary{ID: "w1", Name: "Casa"}, u.ID.Hex()); err != nil {
		t.Fatalf("Save selection failed: %v", err)
	}

	st := session.NewState()
	st.Initialize(nil, nil)
	r := session.WithTestState(jsonRequest(t, "/auth/sign-in", map[string]string{
		"email":    "ana@example.com",
		"password": "segredo77",
	}), st)
	for _, c := range saved.Result().Cookies() {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	snap := st.Snapshot()
	if snap.SelectedWorkspace == nil || snap.SelectedWorkspace.ID != "w1" {
		t.Errorf("expected the saved selection restored, got %+v", snap.SelectedWorkspace)
	}
}

func TestSignIn_DoesNotRestoreAnotherUsersSelection(t *testing.T) {
	h, users := newTestHandler(t)
	createLocalUser(t, users, "Ana Silva", "ana@example.com", "segredo77")

	saved := httptest.NewRecorder()
	if err := h.Sessions.Selection.Save(saved, models.Summary{ID: "w1", Name: "Casa"}, "someone-else"); err != nil {
		t.Fatalf("Save selection failed: %v", err)
	}

	st := session.NewState()
	st.Initialize(nil, nil)
	r := session.WithTestState(jsonRequest(t, "/auth/sign-in", map[string]string{
		"email":    "ana@example.com",
		"password": "segredo77",
	}), st)
	for _, c := range saved.Result().Cookies() {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if st.Snapshot().SelectedWorkspace != nil {
		t.Error("another user's selection must not be restored")
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	h, users := newTestHandler(t)
	createLocalUser(t, users, "Ana", "ana@example.com", "segredo77")

	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, jsonRequest(t, "/auth/sign-in", map[string]string{
		"email":    "ana@example.com",
		"password": "errado",
	}))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestSignIn_UnknownEmail(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, jsonRequest(t, "/auth/sign-in", map[string]string{
		"email":    "nobody@example.com",
		"password": "segredo77",
	}))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestSignIn_MissingFields(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, jsonRequest(t, "/auth/sign-in", map[string]string{}))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSignIn_ThrottledAfterRepeatedFailures(t *testing.T) {
	h, users := newTestHandler(t)
	createLocalUser(t, users, "Ana", "ana@example.com", "segredo77")

	body := map[string]string{"email": "ana@example.com", "password": "errado"}
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.HandleSignIn(rec, jsonRequest(t, "/auth/sign-in", body))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.HandleSignIn(rec, jsonRequest(t, "/auth/sign-in", body))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after repeated failures, got %d", rec.Code)
	}
}
