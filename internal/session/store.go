package session

import (
	"sync"
	"time"

	"github.com/errandmate/errandmate/internal/gateway"
	"github.com/errandmate/errandmate/internal/metrics"
)

// Store owns the session state. Transitions are reducer-style: each names a
// lifecycle event and applies one atomic mutation under the lock. There is
// no terminal state; the store cycles between authenticated and
// unauthenticated for the life of the process.
//
// Overlapping request completions are resolved last-writer-wins; consumers
// that care about ordering read LastFetched from the snapshot.
type Store struct {
	mu      sync.RWMutex
	state   State
	subs    map[int]chan struct{}
	nextSub int

	now     func() time.Time
	metrics *metrics.Metrics
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock replaces the wall clock. Used in tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithMetrics attaches transition counters.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates an empty store: not authenticated, not yet checked.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		subs: make(map[int]chan struct{}),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers for change notifications. Notifications are coalesced:
// the channel holds at most one pending signal. The returned function
// cancels the subscription.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) transition(name string, apply func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	apply()
	s.metrics.ObserveTransition(name)
	s.notifyLocked()
}

// clearSessionLocked drops everything tied to the authenticated identity.
func (s *Store) clearSessionLocked() {
	s.state.User = nil
	s.state.Profile = nil
	s.state.Completeness = nil
	s.state.IsAuthenticated = false
	s.state.LastFetched = nil
}

// BeginAuthCheck marks the start of a session probe. Loading is raised only
// for the first probe; background re-checks must not flicker the UI.
func (s *Store) BeginAuthCheck() {
	s.transition("auth_check_begin", func() {
		if !s.state.AuthChecked {
			s.state.Loading = true
		}
		s.state.Err = ""
	})
}

// AuthCheckSucceeded commits an established session.
func (s *Store) AuthCheckSucceeded(user *gateway.User, profile *gateway.Profile) {
	s.transition("auth_check_succeeded", func() {
		now := s.now()
		s.state.Loading = false
		s.state.IsAuthenticated = true
		s.state.User = user
		s.state.Profile = profile
		s.state.AuthChecked = true
		s.state.LastFetched = &now
		s.state.Err = ""
	})
}

// AuthCheckFailed commits a failed probe. An authentication error is the
// expected "not logged in" answer and never becomes a user-visible error;
// anything else surfaces its message.
func (s *Store) AuthCheckFailed(err error) {
	s.transition("auth_check_failed", func() {
		s.state.Loading = false
		s.clearSessionLocked()
		s.state.AuthChecked = true
		if err != nil && !gateway.IsAuthentication(err) {
			s.state.Err = gateway.UserMessage(err)
		} else {
			s.state.Err = ""
		}
	})
}

// LoginFailed commits a rejected credential exchange. Unlike a probe, the
// rejection is user-visible even when it carries an authentication code:
// the user just typed a password and needs to know it was wrong.
func (s *Store) LoginFailed(err error) {
	s.transition("login_failed", func() {
		s.state.Loading = false
		s.clearSessionLocked()
		s.state.AuthChecked = true
		s.state.Err = gateway.UserMessage(err)
	})
}

// BeginProfileFetch marks the start of an explicit profile fetch.
func (s *Store) BeginProfileFetch() {
	s.transition("profile_fetch_begin", func() {
		s.state.Loading = true
		s.state.Err = ""
	})
}

// ProfileFetchSucceeded commits fetched records. Unlike AuthCheckSucceeded
// it never flips AuthChecked: a background refresh does not stand in for
// the initial probe.
func (s *Store) ProfileFetchSucceeded(user *gateway.User, profile *gateway.Profile) {
	s.transition("profile_fetch_succeeded", func() {
		now := s.now()
		s.state.Loading = false
		s.state.User = user
		s.state.Profile = profile
		s.state.IsAuthenticated = true
		s.state.LastFetched = &now
		s.state.Err = ""
	})
}

// ProfileFetchFailed commits a failed fetch. An authentication failure
// clears the local session; other failures surface their message and leave
// the session intact (a transient outage must not log the user out).
func (s *Store) ProfileFetchFailed(err error) {
	s.transition("profile_fetch_failed", func() {
		s.state.Loading = false
		if gateway.IsAuthentication(err) {
			s.clearSessionLocked()
			return
		}
		s.state.Err = gateway.UserMessage(err)
	})
}

// BeginMutation marks the start of an update call.
func (s *Store) BeginMutation() {
	s.transition("mutation_begin", func() {
		s.state.Loading = true
		s.state.Err = ""
	})
}

// MutationSucceeded commits the authoritative records returned by an
// update. LastFetched is bumped because the response is as fresh as a
// fetch.
func (s *Store) MutationSucceeded(user *gateway.User, profile *gateway.Profile) {
	s.transition("mutation_succeeded", func() {
		now := s.now()
		s.state.Loading = false
		s.state.User = user
		s.state.Profile = profile
		s.state.LastFetched = &now
		s.state.Err = ""
	})
}

// MutationFailed commits a failed update, with the same authentication
// handling as ProfileFetchFailed.
func (s *Store) MutationFailed(err error) {
	s.transition("mutation_failed", func() {
		s.state.Loading = false
		if gateway.IsAuthentication(err) {
			s.clearSessionLocked()
			return
		}
		s.state.Err = gateway.UserMessage(err)
	})
}

// RefreshForced clears LastFetched so the next staleness check triggers a
// full re-fetch. Used after role and location updates, whose responses are
// acknowledgements rather than full records.
func (s *Store) RefreshForced() {
	s.transition("refresh_forced", func() {
		s.state.Loading = false
		s.state.LastFetched = nil
		s.state.Err = ""
	})
}

// CompletenessFetched stores the completeness score.
func (s *Store) CompletenessFetched(value int) {
	s.transition("completeness_fetched", func() {
		s.state.Completeness = &value
	})
}

// CompletenessFetchFailed handles a failed completeness fetch. The score is
// non-critical, so nothing is surfaced - but an authentication failure
// still clears the session.
func (s *Store) CompletenessFetchFailed(err error) {
	s.transition("completeness_fetch_failed", func() {
		if gateway.IsAuthentication(err) {
			s.clearSessionLocked()
		}
	})
}

// OptimisticUserUpdate shallow-merges a user patch before server
// confirmation. No rollback stack is kept: the caller converges by
// re-fetching if the confirming call fails.
func (s *Store) OptimisticUserUpdate(patch gateway.UserPatch) {
	s.transition("optimistic_user_update", func() {
		if s.state.User != nil {
			patch.Apply(s.state.User)
		}
	})
}

// OptimisticProfileUpdate shallow-merges a profile patch before server
// confirmation.
func (s *Store) OptimisticProfileUpdate(patch gateway.ProfilePatch) {
	s.transition("optimistic_profile_update", func() {
		if s.state.Profile != nil {
			patch.Apply(s.state.Profile)
		}
	})
}

// LogoutCompleted resets to a confirmed-unauthenticated session. This runs
// unconditionally - even when the network logout failed - so the local
// session is never left looking authenticated.
func (s *Store) LogoutCompleted() {
	s.transition("logout_completed", func() {
		s.state.Loading = false
		s.clearSessionLocked()
		s.state.AuthChecked = true
		s.state.Err = ""
	})
}

// SetAuthenticated force-sets the authentication flag, clearing identity
// data when turned off.
func (s *Store) SetAuthenticated(ok bool) {
	s.transition("set_authenticated", func() {
		s.state.AuthChecked = true
		s.state.IsAuthenticated = ok
		if !ok {
			s.clearSessionLocked()
		}
	})
}

// ErrorSurfaced re-raises a user-visible message. Recovery fetches clear
// the error banner on success; callers that still owe the user an
// explanation for the original failure put it back with this.
func (s *Store) ErrorSurfaced(message string) {
	s.transition("error_surfaced", func() {
		s.state.Err = message
	})
}

// ClearError dismisses the current error banner.
func (s *Store) ClearError() {
	s.transition("clear_error", func() {
		s.state.Err = ""
	})
}

// SetLoading force-sets the loading flag for callers that orchestrate
// several requests under one spinner.
func (s *Store) SetLoading(loading bool) {
	s.transition("set_loading", func() {
		s.state.Loading = loading
	})
}
