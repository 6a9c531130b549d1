// Package session holds the authoritative view of "who is signed in and
// which workspace is active" and the guards that gate routes on it.
//
// The State container is mutated only through its named transitions
// (Initialize, Login, Logout, SelectWorkspace, ClearWorkspace). The
// initializer reconciles
// the credential cookie, the token payload, and the saved workspace
// selection into a single Initialize commit at the start of each request.
package session

import (
	"sync"

	"github.com/dalemusser/fundio/internal/domain/models"
)

// User is the identity half of the session snapshot.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Snapshot is a point-in-time copy of the session state.
// IsAuthenticated is always equivalent to User != nil.
type Snapshot struct {
	IsAuthenticated   bool
	User              *User
	SelectedWorkspace *models.Summary
	IsInitialized     bool
}

// State is the session state container. The zero value is unusable; use
// NewState.
//
// Initialized moves false→true exactly once and never reverts. The initSlot
// is a separate single-slot in-flight marker so that two concurrent
// Initialize attempts cannot both commit, even before Initialized is
// observable as true.
type State struct {
	mu          sync.Mutex
	initSlot    bool // claimed by the first initialize/login/logout
	initialized bool

	user      *User
	workspace *models.Summary
}

// NewState returns an uninitialized session state.
func NewState() *State {
	return &State{}
}

// Initialize commits the initializer's reconciled (user, workspace) pair.
// It reports whether this call won the one-shot slot; losers must not retry
// and must not mutate state by other means.
func (s *State) Initialize(user *User, ws *models.Summary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initSlot {
		return false
	}
	s.initSlot = true
	s.initialized = true
	s.user = user
	s.workspace = ws
	if user == nil {
		s.workspace = nil
	}
	return true
}

// Login records a fresh authentication. The selected workspace is cleared:
// a new login never inherits a stale selection. Callers that want to restore
// the user's own saved selection do so afterwards via SelectWorkspace.
func (s *State) Login(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initSlot = true
	s.initialized = true
	s.user = &user
	s.workspace = nil
}

// Logout clears the authenticated user and the selected workspace. The
// state stays initialized; the machine has no terminal state and cycles
// through login/logout for the life of the process.
//
// Clearing the credential and selection stores is the caller's job; the
// state container never does I/O.
func (s *State) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initSlot = true
	s.initialized = true
	s.user = nil
	s.workspace = nil
}

// SelectWorkspace records the active workspace. It is a no-op when no user
// is authenticated.
func (s *State) SelectWorkspace(ws models.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return
	}
	s.workspace = &ws
}

// ClearWorkspace drops the active workspace while keeping the user signed
// in. The inverse of SelectWorkspace; used when the selected workspace is
// deleted or left.
func (s *State) ClearWorkspace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspace = nil
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		IsAuthenticated: s.user != nil,
		IsInitialized:   s.initialized,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.workspace != nil {
		ws := *s.workspace
		snap.SelectedWorkspace = &ws
	}
	return snap
}
