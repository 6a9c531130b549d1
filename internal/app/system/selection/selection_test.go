package selection

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fundio/internal/domain/models"
)

var testHashKey = []byte("0123456789abcdef0123456789abcdef")

func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestSaveThenGet(t *testing.T) {
	s := New(testHashKey)
	ws := models.Summary{ID: "w1", Name: "Casa", OwnerID: "u1"}

	rec := httptest.NewRecorder()
	if err := s.Save(rec, ws, "u1"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok := s.Get(httptest.NewRecorder(), requestWithCookies(rec), "u1")
	if !ok {
		t.Fatal("expected selection to be present for the owning user")
	}
	if got != ws {
		t.Errorf("summary: got %+v, want %+v", got, ws)
	}
}

func TestGet_Absent(t *testing.T) {
	s := New(testHashKey)
	if _, ok := s.Get(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "u1"); ok {
		t.Error("expected no selection on a bare request")
	}
}

func TestGet_OtherUsersSelectionIsPurged(t *testing.T) {
	s := New(testHashKey)
	rec := httptest.NewRecorder()
	if err := s.Save(rec, models.Summary{ID: "w1", Name: "Casa", OwnerID: "u1"}, "u1"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out := httptest.NewRecorder()
	if _, ok := s.Get(out, requestWithCookies(rec), "u2"); ok {
		t.Fatal("expected another user's selection to read as absent")
	}

	// The stale record must be deleted, not just hidden.
	cookies := out.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Error("expected the mismatched record to be deleted")
	}
}

func TestGet_UntaggedRecordSurvivesAnyUser(t *testing.T) {
	s := New(testHashKey)
	rec := httptest.NewRecorder()
	if err := s.Save(rec, models.Summary{ID: "w1", Name: "Casa"}, ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, ok := s.Get(httptest.NewRecorder(), requestWithCookies(rec), "u2"); !ok {
		t.Error("expected an owner-less record to be readable by any user")
	}
}

func TestGet_CorruptedValueIsPurged(t *testing.T) {
	s := New(testHashKey)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-signed-record"})

	out := httptest.NewRecorder()
	if _, ok := s.Get(out, r, "u1"); ok {
		t.Fatal("expected a corrupted record to read as absent")
	}
	cookies := out.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Error("expected the corrupted record to be deleted")
	}
}

func TestGet_TamperedValueIsPurged(t *testing.T) {
	s := New(testHashKey)
	other := New([]byte("ffffffffffffffffffffffffffffffff"))

	// Signed with a different key: decodes nowhere, must self-heal.
	rec := httptest.NewRecorder()
	if err := other.Save(rec, models.Summary{ID: "w1", Name: "Casa"}, "u1"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out := httptest.NewRecorder()
	if _, ok := s.Get(out, requestWithCookies(rec), "u1"); ok {
		t.Error("expected a foreign-signed record to read as absent")
	}
}

func TestSave_ReplacesPreviousRecord(t *testing.T) {
	s := New(testHashKey)

	rec1 := httptest.NewRecorder()
	if err := s.Save(rec1, models.Summary{ID: "w1", Name: "Casa"}, "u1"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	rec2 := httptest.NewRecorder()
	if err := s.Save(rec2, models.Summary{ID: "w2", Name: "Empresa"}, "u1"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok := s.Get(httptest.NewRecorder(), requestWithCookies(rec2), "u1")
	if !ok {
		t.Fatal("expected selection to be present")
	}
	if got.ID != "w2" {
		t.Errorf("expected the later record to win, got %q", got.ID)
	}
}

func TestHasSelection(t *testing.T) {
	s := New(testHashKey)
	if s.HasSelection(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), "u1") {
		t.Error("expected HasSelection false on a bare request")
	}

	rec := httptest.NewRecorder()
	if err := s.Save(rec, models.Summary{ID: "w1", Name: "Casa"}, "u1"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !s.HasSelection(httptest.NewRecorder(), requestWithCookies(rec), "u1") {
		t.Error("expected HasSelection true for the owning user")
	}
	if s.HasSelection(httptest.NewRecorder(), requestWithCookies(rec), "u2") {
		t.Error("expected HasSelection false for another user")
	}
}

func TestRemove(t *testing.T) {
	s := New(testHashKey)
	rec := httptest.NewRecorder()
	s.Remove(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Error("expected an expired empty cookie")
	}
}

func TestSave_CookieLifetimeIs90Days(t *testing.T) {
	s := New(testHashKey)

	rec := httptest.NewRecorder()
	if err := s.Save(rec, models.Summary{ID: "w1", Name: "Casa"}, "u1"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	if want := 90 * 24 * 60 * 60; cookies[0].MaxAge != want {
		t.Errorf("MaxAge: got %d, want %d", cookies[0].MaxAge, want)
	}
}
