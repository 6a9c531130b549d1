// Package selection persists the last-selected workspace per browser.
//
// The record is owner-tagged: it remembers which user wrote it, so a second
// account logging in on the same browser never inherits the first account's
// workspace. A mismatch (or any parse failure) deletes the record and reads
// as absent; callers never see another user's selection.
package selection

import (
	"net/http"
	"time"

	"github.com/dalemusser/fundio/internal/domain/models"
	"github.com/gorilla/securecookie"
)

// CookieName is the key under which the selection record is stored.
const CookieName = "selected_workspace"

// maxAge keeps the selection around well past the credential lifetime; the
// owner tag makes a stale record harmless.
var maxAge = int((90 * 24 * time.Hour).Seconds())

// record is the persisted shape: the workspace summary plus the id of the
// user who selected it.
type record struct {
	models.Summary
	OwnerUserID string `json:"ownerUserId,omitempty"`
}

// Store reads and writes the owner-tagged selection cookie.
type Store struct {
	codec *securecookie.SecureCookie
}

// New creates a selection store. hashKey signs the cookie so a tampered
// record fails decoding and self-heals like any other corruption.
func New(hashKey []byte) *Store {
	sc := securecookie.New(hashKey, nil)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(maxAge)
	return &Store{codec: sc}
}

// Save persists the workspace tagged with the selecting user's id.
// The write is replace-only; there is no merge with a previous record.
func (s *Store) Save(w http.ResponseWriter, ws models.Summary, ownerUserID string) error {
	encoded, err := s.codec.Encode(CookieName, record{Summary: ws, OwnerUserID: ownerUserID})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// Get returns the stored workspace, stripped of its owner tag.
//
// A record that fails to decode is deleted and reported absent. If
// currentUserID is non-empty and the record is tagged with a different
// owner, the record is likewise deleted and reported absent.
func (s *Store) Get(w http.ResponseWriter, r *http.Request, currentUserID string) (models.Summary, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return models.Summary{}, false
	}

	var rec record
	if err := s.codec.Decode(CookieName, c.Value, &rec); err != nil {
		s.Remove(w)
		return models.Summary{}, false
	}

	if currentUserID != "" && rec.OwnerUserID != "" && rec.OwnerUserID != currentUserID {
		s.Remove(w)
		return models.Summary{}, false
	}
	return rec.Summary, true
}

// Remove deletes the record unconditionally.
func (s *Store) Remove(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// HasSelection reports whether a selection valid for currentUserID exists.
func (s *Store) HasSelection(w http.ResponseWriter, r *http.Request, currentUserID string) bool {
	_, ok := s.Get(w, r, currentUserID)
	return ok
}
