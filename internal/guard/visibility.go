package guard

import (
	"github.com/errandmate/errandmate/internal/gateway"
	"github.com/errandmate/errandmate/internal/session"
)

// Rule controls the visibility of a single UI element. The zero value shows
// the element to any authenticated user.
type Rule struct {
	// AllowedRoles restricts the element to sessions holding one of the
	// named system roles. Higher roles satisfy lower entries: allowing
	// "user" admits admins too. Nil means no role restriction.
	AllowedRoles []gateway.SystemRole

	// RequireAdmin and RequireSuperAdmin gate on the privilege flags.
	RequireAdmin      bool
	RequireSuperAdmin bool

	// RequireVerification gates on a verified email. It is checked before
	// any role requirement.
	RequireVerification bool

	// Inverse flips the final decision: the element shows exactly when
	// the session would otherwise not qualify. Used for "upgrade" and
	// "complete your profile" prompts.
	Inverse bool
}

// Visible reports whether the element governed by this rule should render
// for the given session.
//
// An unchecked session sees nothing, inverse or not: until the probe lands
// there is no answer to invert. A checked-but-unauthenticated session fails
// every requirement, so Inverse elements (upgrade prompts, sign-in nudges)
// do show for it. For authenticated sessions the rule's requirements are
// evaluated in order (verification, then privilege flags, then roles) and
// Inverse flips the result.
func (r Rule) Visible(st session.State) bool {
	if !st.AuthChecked {
		return false
	}

	eligible := st.IsAuthenticated && st.User != nil && r.eligible(st)
	if r.Inverse {
		return !eligible
	}
	return eligible
}

func (r Rule) eligible(st session.State) bool {
	// Verification is personal: holding the super admin flag does not
	// stand in for a confirmed email.
	if r.RequireVerification && !st.IsVerified() {
		return false
	}
	// Super admins pass every privilege and role check below.
	if st.IsSuperAdmin() {
		return true
	}
	if r.RequireSuperAdmin {
		return false
	}
	if r.RequireAdmin && !st.IsAdmin() {
		return false
	}
	if r.AllowedRoles == nil {
		return true
	}
	for _, role := range r.AllowedRoles {
		if roleSatisfies(st, role) {
			return true
		}
	}
	return false
}

// roleSatisfies applies the role hierarchy: an entry admits its own role and
// everything above it.
func roleSatisfies(st session.State, allowed gateway.SystemRole) bool {
	if st.User == nil {
		return false
	}
	switch allowed {
	case gateway.SystemRoleUser:
		return true
	case gateway.SystemRoleAdmin:
		return st.IsAdmin() || st.IsSuperAdmin()
	case gateway.SystemRoleSuperAdmin:
		return st.IsSuperAdmin()
	default:
		return st.User.Role == allowed
	}
}
