// Package account is the facade the UI talks to. It orchestrates gateway
// calls against the session store so that views never touch the wire or the
// store's transitions directly.
package account

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/errandmate/errandmate/internal/gateway"
	"github.com/errandmate/errandmate/internal/log"
	"github.com/errandmate/errandmate/internal/metrics"
	"github.com/errandmate/errandmate/internal/session"
)

// API is the slice of the gateway client the facade needs. *gateway.Client
// satisfies it; tests substitute a fake.
type API interface {
	Signup(ctx context.Context, req gateway.SignupRequest) (*gateway.Envelope, error)
	Login(ctx context.Context, req gateway.LoginRequest) (*gateway.Envelope, error)
	Logout(ctx context.Context) (*gateway.Envelope, error)
	VerifyEmail(ctx context.Context, token string) (*gateway.Envelope, error)
	ResendVerification(ctx context.Context, email string) (*gateway.Envelope, error)
	ForgotPassword(ctx context.Context, email string) (*gateway.Envelope, error)
	ResetPassword(ctx context.Context, token, password string) (*gateway.Envelope, error)
	GoogleAuth(ctx context.Context, idToken string) (*gateway.Envelope, error)
	AppleAuth(ctx context.Context, idToken string, user *gateway.AppleUser) (*gateway.Envelope, error)
	LinkProvider(ctx context.Context, provider gateway.Provider, idToken string) (*gateway.Envelope, error)
	ProbeSession(ctx context.Context) (*gateway.Envelope, error)
	GetProfile(ctx context.Context) (*gateway.Envelope, error)
	UpdateProfile(ctx context.Context, req gateway.UpdateProfileRequest) (*gateway.Envelope, error)
	GetCompleteness(ctx context.Context) (int, error)
	UpdateRole(ctx context.Context, role gateway.ProfileRole) (*gateway.Envelope, error)
	UpdateLocation(ctx context.Context, location gateway.Location) (*gateway.Envelope, error)
}

// Navigator receives redirect decisions. The terminal UI maps paths onto
// screens; a command-line invocation may just print the destination.
type Navigator interface {
	Navigate(path string)
}

type noopNavigator struct{}

func (noopNavigator) Navigate(string) {}

const defaultLoginPath = "/login"

// Manager coordinates the gateway and the session store.
type Manager struct {
	api       API
	store     *session.Store
	nav       Navigator
	logger    *log.Logger
	metrics   *metrics.Metrics
	loginPath string
	now       func() time.Time

	probing atomic.Bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithNavigator sets the redirect sink.
func WithNavigator(n Navigator) ManagerOption {
	return func(m *Manager) { m.nav = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(mx *metrics.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = mx }
}

// WithLoginPath overrides the destination for authentication redirects.
func WithLoginPath(path string) ManagerOption {
	return func(m *Manager) { m.loginPath = path }
}

// WithClock replaces the wall clock. Used in tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager wires a facade over the given gateway and store.
func NewManager(api API, store *session.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		api:       api,
		store:     store,
		nav:       noopNavigator{},
		logger:    log.Default(),
		loginPath: defaultLoginPath,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store exposes the underlying session store for subscribers.
func (m *Manager) Store() *session.Store {
	return m.store
}

// LoginPath returns the configured authentication redirect destination.
func (m *Manager) LoginPath() string {
	return m.loginPath
}

// InitializeAuth runs the one-time session probe. It is a no-op once the
// session has been checked, and concurrent callers collapse into a single
// in-flight probe. A "not logged in" answer is a normal outcome, not an
// error; only transport-level failures are returned.
func (m *Manager) InitializeAuth(ctx context.Context) error {
	if m.store.Snapshot().AuthChecked {
		return nil
	}
	if !m.probing.CompareAndSwap(false, true) {
		return nil
	}
	defer m.probing.Store(false)

	m.store.BeginAuthCheck()

	env, err := m.api.ProbeSession(ctx)
	if err != nil {
		m.store.AuthCheckFailed(err)
		if gateway.IsAuthentication(err) {
			m.metrics.ObserveAuthCheck("unauthenticated")
			return nil
		}
		m.metrics.ObserveAuthCheck("error")
		return err
	}
	if env.User == nil {
		m.store.AuthCheckFailed(nil)
		m.metrics.ObserveAuthCheck("unauthenticated")
		return nil
	}

	m.store.AuthCheckSucceeded(env.User, env.Profile)
	m.metrics.ObserveAuthCheck("authenticated")
	m.FetchCompleteness(ctx)
	return nil
}

// AuthOutcome summarizes a login or signup attempt that did not fail
// outright. RequiresVerification means the account exists but its email is
// not yet confirmed; no session was established.
type AuthOutcome struct {
	RequiresVerification bool
	Email                string
	Message              string
}

// needsVerification detects the backend's "verify your email first" answer:
// either the explicit flag, or a success response that withheld the user
// record, or a message that names verification.
func needsVerification(env *gateway.Envelope) bool {
	if env.RequiresVerification {
		return true
	}
	if env.User == nil {
		return true
	}
	return strings.Contains(strings.ToLower(env.Message), "verification")
}

// Login authenticates with email and password. On success the session is
// established in the store; a verification-pending account comes back as an
// AuthOutcome with RequiresVerification set and no error.
func (m *Manager) Login(ctx context.Context, email, password string) (*AuthOutcome, error) {
	m.store.SetLoading(true)

	env, err := m.api.Login(ctx, gateway.LoginRequest{Email: email, Password: password})
	if err != nil {
		m.store.LoginFailed(err)
		return nil, err
	}
	return m.commitAuth(ctx, env, email)
}

// Signup registers a credentials account. Most backends withhold the session
// until the email is verified, so RequiresVerification is the common path.
func (m *Manager) Signup(ctx context.Context, name, email, password string) (*AuthOutcome, error) {
	m.store.SetLoading(true)

	env, err := m.api.Signup(ctx, gateway.SignupRequest{Name: name, Email: email, Password: password})
	if err != nil {
		m.store.LoginFailed(err)
		return nil, err
	}
	return m.commitAuth(ctx, env, email)
}

// LoginWithGoogle exchanges a Google ID token for a session.
func (m *Manager) LoginWithGoogle(ctx context.Context, idToken string) (*AuthOutcome, error) {
	m.store.SetLoading(true)

	env, err := m.api.GoogleAuth(ctx, idToken)
	if err != nil {
		m.store.LoginFailed(err)
		return nil, err
	}
	return m.commitAuth(ctx, env, "")
}

// LoginWithApple exchanges an Apple ID token for a session. user carries the
// name Apple only provides on the first sign-in.
func (m *Manager) LoginWithApple(ctx context.Context, idToken string, user *gateway.AppleUser) (*AuthOutcome, error) {
	m.store.SetLoading(true)

	env, err := m.api.AppleAuth(ctx, idToken, user)
	if err != nil {
		m.store.LoginFailed(err)
		return nil, err
	}
	return m.commitAuth(ctx, env, "")
}

func (m *Manager) commitAuth(ctx context.Context, env *gateway.Envelope, fallbackEmail string) (*AuthOutcome, error) {
	if needsVerification(env) {
		m.store.SetLoading(false)
		m.store.SetAuthenticated(false)
		email := env.Email
		if email == "" {
			email = fallbackEmail
		}
		return &AuthOutcome{
			RequiresVerification: true,
			Email:                email,
			Message:              env.Message,
		}, nil
	}

	m.store.AuthCheckSucceeded(env.User, env.Profile)
	m.FetchCompleteness(ctx)
	return &AuthOutcome{Message: env.Message}, nil
}

// LinkProvider attaches an additional identity provider to the current
// account and refreshes the user record from the response.
func (m *Manager) LinkProvider(ctx context.Context, provider gateway.Provider, idToken string) error {
	m.store.BeginMutation()

	env, err := m.api.LinkProvider(ctx, provider, idToken)
	if err != nil {
		m.store.MutationFailed(err)
		m.redirectIfLoggedOut(err)
		return err
	}

	st := m.store.Snapshot()
	user := env.User
	if user == nil {
		user = st.User
	}
	profile := env.Profile
	if profile == nil {
		profile = st.Profile
	}
	m.store.MutationSucceeded(user, profile)
	return nil
}

// FetchUserProfile loads the authoritative user and profile records. An
// authentication failure clears the session and redirects to login; it is
// not returned as an error because the redirect is the handling.
func (m *Manager) FetchUserProfile(ctx context.Context) error {
	m.store.BeginProfileFetch()

	env, err := m.api.GetProfile(ctx)
	if err != nil {
		m.store.ProfileFetchFailed(err)
		if gateway.IsAuthentication(err) {
			m.nav.Navigate(m.loginPath)
			return nil
		}
		return err
	}

	m.store.ProfileFetchSucceeded(env.User, env.Profile)
	return nil
}

// RefreshIfStale re-fetches the profile when the staleness window has
// elapsed. Fresh data is left alone.
func (m *Manager) RefreshIfStale(ctx context.Context) error {
	st := m.store.Snapshot()
	if !st.IsAuthenticated || !st.NeedsRefresh(m.now()) {
		return nil
	}
	return m.FetchUserProfile(ctx)
}

// UpdateUserProfile applies a combined user/profile update. The change is
// merged into the store immediately; if the backend rejects it, the store is
// converged by re-fetching the authoritative records rather than by
// replaying an undo log.
func (m *Manager) UpdateUserProfile(ctx context.Context, req gateway.UpdateProfileRequest) error {
	st := m.store.Snapshot()
	if st.User == nil {
		return gateway.NewError(gateway.CodeAuthentication, "Not authenticated", 0)
	}

	if req.Name != nil || req.Avatar != nil {
		m.store.OptimisticUserUpdate(gateway.UserPatch{Name: req.Name, Avatar: req.Avatar})
	}
	if req.Profile != nil {
		m.store.OptimisticProfileUpdate(*req.Profile)
	}

	m.store.BeginMutation()

	env, err := m.api.UpdateProfile(ctx, req)
	if err != nil {
		m.store.MutationFailed(err)
		if gateway.IsAuthentication(err) {
			m.nav.Navigate(m.loginPath)
			return err
		}
		// Throw away the optimistic merge by reloading truth.
		m.metrics.ObserveOptimisticRecovery()
		if fetchErr := m.FetchUserProfile(ctx); fetchErr != nil {
			m.logger.WithError(fetchErr).Warn("recovery fetch after failed update")
		}
		// The re-fetch clears the banner on success; the user still needs
		// to see why the update was rejected.
		m.store.ErrorSurfaced(gateway.UserMessage(err))
		return err
	}

	user := env.User
	if user == nil {
		user = m.store.Snapshot().User
	}
	profile := env.Profile
	if profile == nil {
		profile = m.store.Snapshot().Profile
	}
	m.store.MutationSucceeded(user, profile)
	m.FetchCompleteness(ctx)
	return nil
}

// UpdateRole sets the marketplace role. The backend acknowledges without
// returning records, so the store is marked stale and re-fetched.
func (m *Manager) UpdateRole(ctx context.Context, role gateway.ProfileRole) error {
	m.store.BeginMutation()

	if _, err := m.api.UpdateRole(ctx, role); err != nil {
		m.store.MutationFailed(err)
		m.redirectIfLoggedOut(err)
		return err
	}

	m.store.RefreshForced()
	return m.FetchUserProfile(ctx)
}

// UpdateLocation sets the profile location, with the same re-fetch contract
// as UpdateRole.
func (m *Manager) UpdateLocation(ctx context.Context, location gateway.Location) error {
	m.store.BeginMutation()

	if _, err := m.api.UpdateLocation(ctx, location); err != nil {
		m.store.MutationFailed(err)
		m.redirectIfLoggedOut(err)
		return err
	}

	m.store.RefreshForced()
	return m.FetchUserProfile(ctx)
}

// FetchCompleteness refreshes the completeness score. The score is cosmetic,
// so failures are swallowed; an authentication failure still clears the
// session through the store.
func (m *Manager) FetchCompleteness(ctx context.Context) {
	value, err := m.api.GetCompleteness(ctx)
	if err != nil {
		m.store.CompletenessFetchFailed(err)
		return
	}
	m.store.CompletenessFetched(value)
}

// VerifyEmail confirms an email address with the emailed token.
func (m *Manager) VerifyEmail(ctx context.Context, token string) (string, error) {
	env, err := m.api.VerifyEmail(ctx, token)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ResendVerification requests a fresh verification email.
func (m *Manager) ResendVerification(ctx context.Context, email string) (string, error) {
	env, err := m.api.ResendVerification(ctx, email)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ForgotPassword starts a password reset.
func (m *Manager) ForgotPassword(ctx context.Context, email string) (string, error) {
	env, err := m.api.ForgotPassword(ctx, email)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ResetPassword completes a password reset with the emailed token.
func (m *Manager) ResetPassword(ctx context.Context, token, password string) (string, error) {
	env, err := m.api.ResetPassword(ctx, token, password)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Logout ends the session. The backend call is best effort: the local
// session is cleared and the user is sent to login no matter what, so a dead
// network cannot leave the app looking signed in.
func (m *Manager) Logout(ctx context.Context) {
	if _, err := m.api.Logout(ctx); err != nil {
		m.logger.WithError(err).WarnContext(ctx, "server-side logout failed, clearing local session anyway")
	}
	m.store.LogoutCompleted()
	m.nav.Navigate(m.loginPath)
}

func (m *Manager) redirectIfLoggedOut(err error) {
	if gateway.IsAuthentication(err) {
		m.nav.Navigate(m.loginPath)
	}
}

// RoleLabel renders a marketplace role for display.
func RoleLabel(role gateway.ProfileRole) string {
	switch role {
	case gateway.ProfileRoleCustomer:
		return "Customer"
	case gateway.ProfileRoleProvider:
		return "Service Provider"
	default:
		return "Not set"
	}
}

// ProviderLabel renders an identity provider for display.
func ProviderLabel(p gateway.Provider) string {
	switch p {
	case gateway.ProviderGoogle:
		return "Google"
	case gateway.ProviderApple:
		return "Apple"
	case gateway.ProviderCredentials:
		return "Email & password"
	default:
		return string(p)
	}
}

// FormatDate renders a timestamp for display, or a dash when unset.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}
