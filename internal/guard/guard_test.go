package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/errandmate/errandmate/internal/gateway"
	"github.com/errandmate/errandmate/internal/session"
)

func sessionState(mutate ...func(*session.State)) session.State {
	st := session.State{
		User: &gateway.User{
			ID:         "user-1",
			Name:       "Ama Mensah",
			Email:      "ama@example.com",
			IsVerified: true,
			Role:       gateway.SystemRoleUser,
		},
		IsAuthenticated: true,
		AuthChecked:     true,
	}
	for _, m := range mutate {
		m(&st)
	}
	return st
}

func unchecked() session.State {
	return session.State{Loading: true}
}

func loggedOut() session.State {
	return session.State{AuthChecked: true}
}

func unverified() session.State {
	return sessionState(func(st *session.State) { st.User.IsVerified = false })
}

func asAdmin() session.State {
	return sessionState(func(st *session.State) {
		st.User.Role = gateway.SystemRoleAdmin
		st.User.IsAdmin = true
	})
}

func asSuperAdmin() session.State {
	return sessionState(func(st *session.State) {
		st.User.Role = gateway.SystemRoleSuperAdmin
		st.User.IsAdmin = true
		st.User.IsSuperAdmin = true
	})
}

func TestParseLevel(t *testing.T) {
	for _, valid := range []string{"user", "verified", "admin", "super_admin"} {
		lvl, err := ParseLevel(valid)
		assert.NoError(t, err)
		assert.Equal(t, Level(valid), lvl)
	}
	_, err := ParseLevel("root")
	assert.Error(t, err)
}

func TestEvaluate_PendingBeforeProbe(t *testing.T) {
	// No decision is made until the session probe lands, so the UI can
	// never flash a redirect at a user who turns out to be logged in.
	d := Evaluate(unchecked(), LevelUser, "/account", "/login")
	assert.Equal(t, Pending, d.Outcome)
	assert.Empty(t, d.RedirectTo)
}

func TestEvaluate_UnauthenticatedRedirectsWithReturnPath(t *testing.T) {
	d := Evaluate(loggedOut(), LevelUser, "/account/profile", "/login")
	assert.Equal(t, Redirect, d.Outcome)
	assert.Equal(t, "/login?redirect=%2Faccount%2Fprofile", d.RedirectTo)
}

func TestEvaluate_AuthenticatedUserAllowed(t *testing.T) {
	d := Evaluate(sessionState(), LevelUser, "/account", "/login")
	assert.Equal(t, Allow, d.Outcome)
}

func TestEvaluate_UnverifiedPromptsInPlace(t *testing.T) {
	d := Evaluate(unverified(), LevelVerified, "/errands/new", "/login")
	assert.Equal(t, NeedsVerification, d.Outcome)
	assert.Empty(t, d.RedirectTo, "verification failures never navigate away")
}

func TestEvaluate_UnverifiedStillPassesUserLevel(t *testing.T) {
	d := Evaluate(unverified(), LevelUser, "/account", "/login")
	assert.Equal(t, Allow, d.Outcome)
}

func TestEvaluate_UnverifiedPrivilegedPromptedToVerify(t *testing.T) {
	// Verification comes before privilege at every level above plain
	// authentication, so even admins see the verify prompt first.
	admin := asAdmin()
	admin.User.IsVerified = false
	assert.Equal(t, NeedsVerification, Evaluate(admin, LevelAdmin, "/admin", "/login").Outcome)

	super := asSuperAdmin()
	super.User.IsVerified = false
	assert.Equal(t, NeedsVerification, Evaluate(super, LevelSuperAdmin, "/admin/system", "/login").Outcome)
	assert.Equal(t, Allow, Evaluate(super, LevelUser, "/account", "/login").Outcome)
}

func TestEvaluate_RedirectKeepsLoginQuery(t *testing.T) {
	d := Evaluate(loggedOut(), LevelUser, "/account/profile", "/login?src=cli")
	assert.Equal(t, Redirect, d.Outcome)
	assert.Equal(t, "/login?redirect=%2Faccount%2Fprofile&src=cli", d.RedirectTo)
}

func TestEvaluate_AdminLevel(t *testing.T) {
	assert.Equal(t, Unauthorized, Evaluate(sessionState(), LevelAdmin, "/admin", "/login").Outcome)
	assert.Equal(t, Allow, Evaluate(asAdmin(), LevelAdmin, "/admin", "/login").Outcome)
	assert.Equal(t, Allow, Evaluate(asSuperAdmin(), LevelAdmin, "/admin", "/login").Outcome)
}

func TestEvaluate_SuperAdminLevel(t *testing.T) {
	assert.Equal(t, Unauthorized, Evaluate(asAdmin(), LevelSuperAdmin, "/admin/system", "/login").Outcome)
	assert.Equal(t, Allow, Evaluate(asSuperAdmin(), LevelSuperAdmin, "/admin/system", "/login").Outcome)
}

func TestEvaluate_SuperAdminNeedsNoProfile(t *testing.T) {
	// System privilege is independent of marketplace profile setup.
	st := asSuperAdmin()
	st.Profile = nil

	assert.Equal(t, Allow, Evaluate(st, LevelAdmin, "/admin", "/login").Outcome)
	assert.Equal(t, Allow, Evaluate(st, LevelSuperAdmin, "/admin/system", "/login").Outcome)
}

func TestEvaluate_PrivilegeFailureStaysInPlace(t *testing.T) {
	d := Evaluate(sessionState(), LevelSuperAdmin, "/admin/system", "/login")
	assert.Equal(t, Unauthorized, d.Outcome)
	assert.Empty(t, d.RedirectTo)
}

func TestRule_ZeroValueShowsAnyAuthenticated(t *testing.T) {
	var r Rule
	assert.True(t, r.Visible(sessionState()))
	assert.False(t, r.Visible(loggedOut()))
	assert.False(t, r.Visible(unchecked()))
}

func TestRule_InverseShowsForLoggedOut(t *testing.T) {
	// A checked logged-out session fails every requirement, which is
	// exactly when inverse elements (sign-in nudges, upgrade prompts)
	// want to render. Before the probe lands nothing renders either way.
	r := Rule{RequireAdmin: true, Inverse: true}
	assert.True(t, r.Visible(loggedOut()))
	assert.False(t, r.Visible(unchecked()))

	plain := Rule{Inverse: true}
	assert.True(t, plain.Visible(loggedOut()))
	assert.False(t, plain.Visible(unchecked()))
	assert.False(t, plain.Visible(sessionState()))
}

func TestRule_RoleHierarchy(t *testing.T) {
	userOnly := Rule{AllowedRoles: []gateway.SystemRole{gateway.SystemRoleUser}}
	assert.True(t, userOnly.Visible(sessionState()))
	assert.True(t, userOnly.Visible(asAdmin()), "allowing the lowest role admits everyone")
	assert.True(t, userOnly.Visible(asSuperAdmin()))

	adminOnly := Rule{AllowedRoles: []gateway.SystemRole{gateway.SystemRoleAdmin}}
	assert.False(t, adminOnly.Visible(sessionState()))
	assert.True(t, adminOnly.Visible(asAdmin()))
	assert.True(t, adminOnly.Visible(asSuperAdmin()))
}

func TestRule_PrivilegeFlags(t *testing.T) {
	admin := Rule{RequireAdmin: true}
	assert.False(t, admin.Visible(sessionState()))
	assert.True(t, admin.Visible(asAdmin()))
	assert.True(t, admin.Visible(asSuperAdmin()))

	super := Rule{RequireSuperAdmin: true}
	assert.False(t, super.Visible(asAdmin()))
	assert.True(t, super.Visible(asSuperAdmin()))
}

func TestRule_VerificationBeforeRoles(t *testing.T) {
	r := Rule{
		RequireVerification: true,
		AllowedRoles:        []gateway.SystemRole{gateway.SystemRoleUser},
	}
	assert.False(t, r.Visible(unverified()))
	assert.True(t, r.Visible(sessionState()))
}

func TestRule_VerificationAppliesToSuperAdmins(t *testing.T) {
	// The super admin shortcut covers privilege and role checks only; an
	// unconfirmed email fails a verification requirement for everyone.
	st := asSuperAdmin()
	st.User.IsVerified = false

	r := Rule{RequireVerification: true, RequireAdmin: true}
	assert.False(t, r.Visible(st))

	verifiedSuper := asSuperAdmin()
	assert.True(t, r.Visible(verifiedSuper))

	privilegeOnly := Rule{RequireAdmin: true}
	assert.True(t, privilegeOnly.Visible(st), "without a verification requirement the shortcut still applies")
}

func TestRule_InverseFlipsFinalDecision(t *testing.T) {
	upgrade := Rule{RequireAdmin: true, Inverse: true}
	assert.True(t, upgrade.Visible(sessionState()), "inverse shows the element to non-qualifiers")
	assert.False(t, upgrade.Visible(asAdmin()))

	verifyPrompt := Rule{RequireVerification: true, Inverse: true}
	assert.True(t, verifyPrompt.Visible(unverified()))
	assert.False(t, verifyPrompt.Visible(sessionState()))
}

func TestRule_InverseWithSuperAdmin(t *testing.T) {
	// Super admins qualify for everything, so inverse elements are the
	// one class they never see.
	r := Rule{AllowedRoles: []gateway.SystemRole{gateway.SystemRoleUser}, Inverse: true}
	assert.False(t, r.Visible(asSuperAdmin()))
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "redirect", Redirect.String())
	assert.Equal(t, "needs_verification", NeedsVerification.String())
	assert.Equal(t, "unauthorized", Unauthorized.String())
}
