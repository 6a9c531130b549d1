package workspaces_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fundio/internal/app/features/workspaces"
	"github.com/dalemusser/fundio/internal/app/system/credential"
	"github.com/dalemusser/fundio/internal/app/system/selection"
	"github.com/dalemusser/fundio/internal/app/system/session"
	"github.com/dalemusser/fundio/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// newRoutesHandler builds a handler without a database; the routes tests
// stop at the guards or at the stub resource routers.
func newRoutesHandler() *workspaces.Handler {
	logger := zap.NewNop()
	sessions := session.NewManager(
		&credential.Store{},
		selection.New([]byte("0123456789abcdef0123456789abcdef")),
		logger,
	)
	return workspaces.NewHandler(nil, nil, nil, nil, sessions, logger)
}

func stubResource() chi.Router {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func serveWorkspaces(router chi.Router, target string, st *session.State) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req = session.WithTestState(req, st)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_NestedResourcesNeedSelectedWorkspace(t *testing.T) {
	h := newRoutesHandler()
	router := workspaces.Routes(h, stubResource(), stubResource())

	st := session.NewState()
	st.Login(session.User{ID: "u1", Name: "Ana", Email: "ana@test.com"})

	wsID := primitive.NewObjectID().Hex()
	for _, target := range []string{
		"/" + wsID + "/bank-accounts",
		"/" + wsID + "/credit-cards",
	} {
		rec := serveWorkspaces(router, target, st)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("%s: expected 303 without a selection, got %d", target, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != h.Sessions.SelectionPath {
			t.Errorf("%s: Location: got %q, want %q", target, loc, h.Sessions.SelectionPath)
		}
	}
}

func TestRoutes_NestedResourcesPassWithSelection(t *testing.T) {
	h := newRoutesHandler()
	router := workspaces.Routes(h, stubResource(), stubResource())

	wsID := primitive.NewObjectID().Hex()
	st := session.NewState()
	st.Login(session.User{ID: "u1", Name: "Ana", Email: "ana@test.com"})
	st.SelectWorkspace(models.Summary{ID: wsID, Name: "Casa", OwnerID: "u1"})

	rec := serveWorkspaces(router, "/"+wsID+"/bank-accounts", st)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected the nested router's 204, got %d", rec.Code)
	}
}

func TestRoutes_WorkspaceManagementNeedsNoSelection(t *testing.T) {
	h := newRoutesHandler()
	router := workspaces.Routes(h, stubResource(), stubResource())

	st := session.NewState()
	st.Login(session.User{ID: "u1", Name: "Ana", Email: "ana@test.com"})

	// No verified user on the request, so the handler answers 401; the
	// point is that the workspace guard did not redirect first.
	rec := serveWorkspaces(router, "/"+primitive.NewObjectID().Hex(), st)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected the handler's 401, got %d", rec.Code)
	}
}
