// Package session holds the single source of truth for authentication and
// profile state. All mutation goes through the Store's named transitions;
// components read immutable snapshots.
package session

import (
	"time"

	"github.com/errandmate/errandmate/internal/gateway"
)

// RefreshInterval is the staleness window for profile data.
const RefreshInterval = 5 * time.Minute

// State is one consistent snapshot of the session.
//
// Invariants: IsAuthenticated implies User != nil; AuthChecked is false only
// before the first session probe completes, and no redirect decision may be
// made anywhere in the UI until it is true.
type State struct {
	User    *gateway.User
	Profile *gateway.Profile

	// Completeness is nil until the first successful completeness fetch.
	Completeness *int

	// Loading and Err are transient UI-facing flags; they are never
	// persisted across restarts.
	Loading bool
	Err     string

	// LastFetched is the time of the last successful profile fetch, nil
	// before the first one. It drives the staleness window and is the
	// tie-breaker consumers read when overlapping requests complete out
	// of order.
	LastFetched *time.Time

	IsAuthenticated bool
	AuthChecked     bool
}

// NeedsRefresh reports whether profile data is stale at the given instant.
func (s State) NeedsRefresh(now time.Time) bool {
	if s.LastFetched == nil {
		return true
	}
	return now.Sub(*s.LastFetched) > RefreshInterval
}

// HasProfile reports whether the user has completed profile setup.
func (s State) HasProfile() bool {
	return s.Profile != nil
}

// IsAdmin reports whether the user holds the admin system role.
func (s State) IsAdmin() bool {
	return s.User != nil && s.User.IsAdmin
}

// IsSuperAdmin reports whether the user holds the super admin system role.
// Super admins need no profile role to pass admin-only checks.
func (s State) IsSuperAdmin() bool {
	return s.User != nil && s.User.IsSuperAdmin
}

// IsVerified reports whether the user's email is verified.
func (s State) IsVerified() bool {
	return s.User != nil && s.User.IsVerified
}

// clone returns a copy safe to hand out: the top-level user and profile
// records are copied so later optimistic merges cannot alias into a
// snapshot a component already holds.
func (s State) clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	if s.Completeness != nil {
		c := *s.Completeness
		out.Completeness = &c
	}
	if s.LastFetched != nil {
		t := *s.LastFetched
		out.LastFetched = &t
	}
	return out
}
