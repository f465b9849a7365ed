package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/errandmate/errandmate/internal/gateway"
	"github.com/errandmate/errandmate/internal/session"
)

// fakeAPI scripts responses per endpoint and records the calls made.
type fakeAPI struct {
	calls []string

	probeEnv    *gateway.Envelope
	probeErr    error
	loginEnv    *gateway.Envelope
	loginErr    error
	signupEnv   *gateway.Envelope
	signupErr   error
	profileEnv  *gateway.Envelope
	profileErr  error
	updateEnv   *gateway.Envelope
	updateErr   error
	roleErr     error
	locationErr error
	logoutErr   error
	complete    int
	completeErr error
}

func (f *fakeAPI) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeAPI) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeAPI) Signup(ctx context.Context, req gateway.SignupRequest) (*gateway.Envelope, error) {
	f.record("signup")
	return f.signupEnv, f.signupErr
}

func (f *fakeAPI) Login(ctx context.Context, req gateway.LoginRequest) (*gateway.Envelope, error) {
	f.record("login")
	return f.loginEnv, f.loginErr
}

func (f *fakeAPI) Logout(ctx context.Context) (*gateway.Envelope, error) {
	f.record("logout")
	return &gateway.Envelope{}, f.logoutErr
}

func (f *fakeAPI) VerifyEmail(ctx context.Context, token string) (*gateway.Envelope, error) {
	f.record("verify-email")
	return &gateway.Envelope{Message: "Email verified"}, nil
}

func (f *fakeAPI) ResendVerification(ctx context.Context, email string) (*gateway.Envelope, error) {
	f.record("resend-verification")
	return &gateway.Envelope{Message: "Verification email sent"}, nil
}

func (f *fakeAPI) ForgotPassword(ctx context.Context, email string) (*gateway.Envelope, error) {
	f.record("forgot-password")
	return &gateway.Envelope{Message: "Reset email sent"}, nil
}

func (f *fakeAPI) ResetPassword(ctx context.Context, token, password string) (*gateway.Envelope, error) {
	f.record("reset-password")
	return &gateway.Envelope{Message: "Password updated"}, nil
}

func (f *fakeAPI) GoogleAuth(ctx context.Context, idToken string) (*gateway.Envelope, error) {
	f.record("google")
	return f.loginEnv, f.loginErr
}

func (f *fakeAPI) AppleAuth(ctx context.Context, idToken string, user *gateway.AppleUser) (*gateway.Envelope, error) {
	f.record("apple")
	return f.loginEnv, f.loginErr
}

func (f *fakeAPI) LinkProvider(ctx context.Context, provider gateway.Provider, idToken string) (*gateway.Envelope, error) {
	f.record("link-provider")
	return f.loginEnv, f.loginErr
}

func (f *fakeAPI) ProbeSession(ctx context.Context) (*gateway.Envelope, error) {
	f.record("probe")
	return f.probeEnv, f.probeErr
}

func (f *fakeAPI) GetProfile(ctx context.Context) (*gateway.Envelope, error) {
	f.record("get-profile")
	return f.profileEnv, f.profileErr
}

func (f *fakeAPI) UpdateProfile(ctx context.Context, req gateway.UpdateProfileRequest) (*gateway.Envelope, error) {
	f.record("update-profile")
	return f.updateEnv, f.updateErr
}

func (f *fakeAPI) GetCompleteness(ctx context.Context) (int, error) {
	f.record("completeness")
	return f.complete, f.completeErr
}

func (f *fakeAPI) UpdateRole(ctx context.Context, role gateway.ProfileRole) (*gateway.Envelope, error) {
	f.record("update-role")
	return &gateway.Envelope{Message: "Role updated"}, f.roleErr
}

func (f *fakeAPI) UpdateLocation(ctx context.Context, location gateway.Location) (*gateway.Envelope, error) {
	f.record("update-location")
	return &gateway.Envelope{Message: "Location updated"}, f.locationErr
}

// recordingNav captures every redirect.
type recordingNav struct {
	paths []string
}

func (n *recordingNav) Navigate(path string) { n.paths = append(n.paths, path) }

func testUser() *gateway.User {
	return &gateway.User{
		ID:         "user-1",
		Name:       "Ama Mensah",
		Email:      "ama@example.com",
		IsVerified: true,
		Role:       gateway.SystemRoleUser,
		Provider:   gateway.ProviderCredentials,
	}
}

func testProfile() *gateway.Profile {
	return &gateway.Profile{
		ID:       "profile-1",
		UserID:   "user-1",
		Role:     gateway.ProfileRoleCustomer,
		Bio:      "I run errands",
		IsActive: true,
	}
}

func notAuthenticated() error {
	return gateway.NewError(gateway.CodeAuthentication, "Not authenticated", 401)
}

func newManager(t *testing.T, api *fakeAPI, opts ...ManagerOption) (*Manager, *session.Store, *recordingNav) {
	t.Helper()
	store := session.NewStore()
	nav := &recordingNav{}
	opts = append([]ManagerOption{WithNavigator(nav)}, opts...)
	return NewManager(api, store, opts...), store, nav
}

func TestInitializeAuth_EstablishedSession(t *testing.T) {
	api := &fakeAPI{
		probeEnv: &gateway.Envelope{User: testUser(), Profile: testProfile()},
		complete: 60,
	}
	mgr, store, nav := newManager(t, api)

	require.NoError(t, mgr.InitializeAuth(context.Background()))

	st := store.Snapshot()
	assert.True(t, st.AuthChecked)
	assert.True(t, st.IsAuthenticated)
	require.NotNil(t, st.Completeness)
	assert.Equal(t, 60, *st.Completeness)
	assert.Empty(t, nav.paths, "an established session never redirects")
}

func TestInitializeAuth_NotLoggedInIsNotAnError(t *testing.T) {
	api := &fakeAPI{probeErr: notAuthenticated()}
	mgr, store, _ := newManager(t, api)

	require.NoError(t, mgr.InitializeAuth(context.Background()))

	st := store.Snapshot()
	assert.True(t, st.AuthChecked)
	assert.False(t, st.IsAuthenticated)
	assert.Empty(t, st.Err)
}

func TestInitializeAuth_TransportErrorSurfaces(t *testing.T) {
	api := &fakeAPI{probeErr: gateway.WrapError(gateway.CodeNetwork, "Network error. Please check your connection and try again.", errors.New("refused"))}
	mgr, store, _ := newManager(t, api)

	err := mgr.InitializeAuth(context.Background())
	require.Error(t, err)

	st := store.Snapshot()
	assert.True(t, st.AuthChecked)
	assert.NotEmpty(t, st.Err)
}

func TestInitializeAuth_RunsOnce(t *testing.T) {
	api := &fakeAPI{probeErr: notAuthenticated()}
	mgr, _, _ := newManager(t, api)

	require.NoError(t, mgr.InitializeAuth(context.Background()))
	require.NoError(t, mgr.InitializeAuth(context.Background()))

	assert.Equal(t, 1, api.count("probe"), "a checked session is never re-probed")
}

func TestLogin_EstablishesSession(t *testing.T) {
	api := &fakeAPI{
		loginEnv: &gateway.Envelope{Message: "Login successful", User: testUser(), Profile: testProfile()},
		complete: 40,
	}
	mgr, store, _ := newManager(t, api)

	outcome, err := mgr.Login(context.Background(), "ama@example.com", "hunter2")
	require.NoError(t, err)
	assert.False(t, outcome.RequiresVerification)

	st := store.Snapshot()
	assert.True(t, st.IsAuthenticated)
	assert.True(t, st.AuthChecked)
	assert.Equal(t, "Ama Mensah", st.User.Name)
}

func TestLogin_VerificationPending(t *testing.T) {
	api := &fakeAPI{
		loginEnv: &gateway.Envelope{
			Message:              "Please verify your email",
			RequiresVerification: true,
			Email:                "ama@example.com",
		},
	}
	mgr, store, nav := newManager(t, api)

	outcome, err := mgr.Login(context.Background(), "ama@example.com", "hunter2")
	require.NoError(t, err)
	require.True(t, outcome.RequiresVerification)
	assert.Equal(t, "ama@example.com", outcome.Email)

	st := store.Snapshot()
	assert.False(t, st.IsAuthenticated)
	assert.True(t, st.AuthChecked)
	assert.Empty(t, nav.paths, "verification pending prompts in place, no redirect")
}

func TestLogin_MissingUserTreatedAsVerificationPending(t *testing.T) {
	api := &fakeAPI{loginEnv: &gateway.Envelope{Message: "ok"}}
	mgr, _, _ := newManager(t, api)

	outcome, err := mgr.Login(context.Background(), "ama@example.com", "hunter2")
	require.NoError(t, err)
	assert.True(t, outcome.RequiresVerification)
	assert.Equal(t, "ama@example.com", outcome.Email, "falls back to the submitted address")
}

func TestLogin_BadCredentialsSurface(t *testing.T) {
	api := &fakeAPI{loginErr: gateway.NewError(gateway.CodeAuthentication, "Invalid email or password", 401)}
	mgr, store, _ := newManager(t, api)

	_, err := mgr.Login(context.Background(), "ama@example.com", "wrong")
	require.Error(t, err)

	st := store.Snapshot()
	assert.False(t, st.IsAuthenticated)
	assert.Equal(t, "Invalid email or password", st.Err, "a typed-in rejection is user-visible")
}

func TestLogout_AlwaysClearsAndRedirects(t *testing.T) {
	for _, serverErr := range []error{nil, gateway.WrapError(gateway.CodeNetwork, "down", errors.New("down"))} {
		api := &fakeAPI{
			loginEnv:  &gateway.Envelope{User: testUser(), Profile: testProfile()},
			logoutErr: serverErr,
		}
		mgr, store, nav := newManager(t, api)
		_, err := mgr.Login(context.Background(), "ama@example.com", "hunter2")
		require.NoError(t, err)

		mgr.Logout(context.Background())

		st := store.Snapshot()
		assert.False(t, st.IsAuthenticated)
		assert.Nil(t, st.User)
		assert.True(t, st.AuthChecked)
		assert.Equal(t, []string{"/login"}, nav.paths)
	}
}

func TestFetchUserProfile_AuthFailureRedirects(t *testing.T) {
	api := &fakeAPI{
		loginEnv:   &gateway.Envelope{User: testUser(), Profile: testProfile()},
		profileErr: notAuthenticated(),
	}
	mgr, store, nav := newManager(t, api)
	_, err := mgr.Login(context.Background(), "ama@example.com", "hunter2")
	require.NoError(t, err)

	require.NoError(t, mgr.FetchUserProfile(context.Background()), "the redirect is the handling")

	st := store.Snapshot()
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.User)
	assert.Equal(t, []string{"/login"}, nav.paths)
}

func TestUpdateUserProfile_OptimisticThenConfirmed(t *testing.T) {
	bio := "updated bio"
	updated := testProfile()
	updated.Bio = bio

	api := &fakeAPI{
		loginEnv:  &gateway.Envelope{User: testUser(), Profile: testProfile()},
		updateEnv: &gateway.Envelope{User: testUser(), Profile: updated},
	}
	mgr, store, _ := newManager(t, api)
	_, err := mgr.Login(context.Background(), "ama@example.com", "hunter2")
	require.NoError(t, err)

	req := gateway.UpdateProfileRequest{Profile: &gateway.ProfilePatch{Bio: &bio}}
	require.NoError(t, mgr.UpdateUserProfile(context.Background(), req))

	st := store.Snapshot()
	assert.Equal(t, bio, st.Profile.Bio)
	assert.Zero(t, api.count("get-profile"), "a confirmed update needs no recovery fetch")
}

func TestUpdateUserProfile_FailureConvergesByRefetch(t *testing.T) {
	api := &fakeAPI{
		loginEnv:   &gateway.Envelope{User: testUser(), Profile: testProfile()},
		updateErr:  gateway.NewError(gateway.CodeValidation, "Bio is too long", 400),
		profileEnv: &gateway.Envelope{User: testUser(), Profile: testProfile()},
	}
	mgr, store, _ := newManager(t, api)
	_, err := mgr.Login(context.Background(), "ama@example.com", "hunter2")
	require.NoError(t, err)

	long := "way too long"
	req := gateway.UpdateProfileRequest{Profile: &gateway.ProfilePatch{Bio: &long}}
	err = mgr.UpdateUserProfile(context.Background(), req)
	require.Error(t, err)

	// The optimistic merge is gone: the store converged back to the
	// server's records via re-fetch.
	st := store.Snapshot()
	assert.Equal(t, "I run errands", st.Profile.Bio)
	assert.Equal(t, 1, api.count("get-profile"))
	assert.Equal(t, "Bio is too long", st.Err)
}

func TestUpdateUserProfile_RequiresSession(t *testing.T) {
	mgr, _, _ := newManager(t, &fakeAPI{})

	name := "x"
	err := mgr.UpdateUserProfile(context.Background(), gateway.UpdateProfileRequest{Name: &name})
	require.Error(t, err)
	assert.True(t, gateway.IsAuthentication(err))
}

func TestUpdateRole_AckThenRefetch(t *testing.T) {
	asProvider := testProfile()
	asProvider.Role = gateway.ProfileRoleProvider

	api := &fakeAPI{
		loginEnv:   &gateway.Envelope{User: testUser(), Profile: testProfile()},
		profileEnv: &gateway.Envelope{User: testUser(), Profile: asProvider},
	}
	mgr, store, _ := newManager(t, api)
	_, err := mgr.Login(context.Background(), "ama@example.com", "hunter2")
	require.NoError(t, err)

	require.NoError(t, mgr.UpdateRole(context.Background(), gateway.ProfileRoleProvider))

	st := store.Snapshot()
	assert.Equal(t, gateway.ProfileRoleProvider, st.Profile.Role)
	assert.Equal(t, 1, api.count("update-role"))
	assert.Equal(t, 1, api.count("get-profile"), "acknowledgement responses are never trusted as records")
}

func TestRefreshIfStale(t *testing.T) {
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := session.NewStore(session.WithClock(func() time.Time { return current }))
	api := &fakeAPI{profileEnv: &gateway.Envelope{User: testUser(), Profile: testProfile()}}
	mgr := NewManager(api, store, WithClock(func() time.Time { return current }))

	store.AuthCheckSucceeded(testUser(), testProfile())

	require.NoError(t, mgr.RefreshIfStale(context.Background()))
	assert.Zero(t, api.count("get-profile"), "fresh data is left alone")

	current = current.Add(session.RefreshInterval + time.Second)
	require.NoError(t, mgr.RefreshIfStale(context.Background()))
	assert.Equal(t, 1, api.count("get-profile"))
}

func TestRefreshIfStale_SkipsUnauthenticated(t *testing.T) {
	api := &fakeAPI{}
	mgr, _, _ := newManager(t, api)

	require.NoError(t, mgr.RefreshIfStale(context.Background()))
	assert.Empty(t, api.calls)
}

func TestFetchCompleteness_FailureIsSilent(t *testing.T) {
	api := &fakeAPI{
		loginEnv:    &gateway.Envelope{User: testUser(), Profile: testProfile()},
		completeErr: gateway.WrapError(gateway.CodeNetwork, "down", errors.New("down")),
	}
	mgr, store, _ := newManager(t, api)
	_, err := mgr.Login(context.Background(), "ama@example.com", "hunter2")
	require.NoError(t, err)

	st := store.Snapshot()
	assert.True(t, st.IsAuthenticated)
	assert.Empty(t, st.Err)
	assert.Nil(t, st.Completeness)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Customer", RoleLabel(gateway.ProfileRoleCustomer))
	assert.Equal(t, "Service Provider", RoleLabel(gateway.ProfileRoleProvider))
	assert.Equal(t, "Not set", RoleLabel(""))

	assert.Equal(t, "Google", ProviderLabel(gateway.ProviderGoogle))
	assert.Equal(t, "Email & password", ProviderLabel(gateway.ProviderCredentials))

	assert.Equal(t, "-", FormatDate(time.Time{}))
	assert.Equal(t, "Aug 1, 2026", FormatDate(time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)))
}
