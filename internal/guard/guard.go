// Package guard decides what a session may see. It has two surfaces: route
// guarding (Evaluate, producing an outcome for a whole screen) and
// fine-grained visibility (Rule, hiding or showing individual elements).
//
// All decisions are pure functions of a session snapshot, so they are
// trivially testable and can never observe a half-applied transition.
package guard

import (
	"fmt"
	"net/url"

	"github.com/errandmate/errandmate/internal/session"
)

// Level is the access requirement a route declares.
type Level string

const (
	// LevelUser requires any authenticated session.
	LevelUser Level = "user"
	// LevelVerified additionally requires a verified email.
	LevelVerified Level = "verified"
	// LevelAdmin requires the admin flag.
	LevelAdmin Level = "admin"
	// LevelSuperAdmin requires the super admin flag.
	LevelSuperAdmin Level = "super_admin"
)

// ParseLevel converts a configuration string into a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelUser, LevelVerified, LevelAdmin, LevelSuperAdmin:
		return Level(s), nil
	default:
		return "", fmt.Errorf("unknown access level %q", s)
	}
}

// Outcome is the result of evaluating a guarded route.
type Outcome int

const (
	// Pending means the session probe has not completed; render nothing
	// and decide again after it lands.
	Pending Outcome = iota
	// Allow renders the protected content.
	Allow
	// Redirect sends the user to the login screen, remembering where they
	// were headed.
	Redirect
	// NeedsVerification shows the verify-your-email prompt in place of
	// the content. The user stays where they are.
	NeedsVerification
	// Unauthorized shows an access-denied notice in place of the content.
	// The user stays where they are.
	Unauthorized
)

// String renders the outcome for logs.
func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	case NeedsVerification:
		return "needs_verification"
	case Unauthorized:
		return "unauthorized"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Decision is an Outcome plus, for redirects, where to go.
type Decision struct {
	Outcome    Outcome
	RedirectTo string
}

// Evaluate decides access to a route requiring the given level.
//
// Decision order is fixed: an unchecked session is Pending regardless of
// anything else; an unauthenticated session redirects to loginPath with the
// attempted path preserved in a redirect parameter; then verification, then
// privilege. Only the unauthenticated case navigates away - verification and
// privilege failures keep the user in place with an explanatory screen.
func Evaluate(st session.State, level Level, currentPath, loginPath string) Decision {
	if !st.AuthChecked || st.Loading {
		return Decision{Outcome: Pending}
	}
	if !st.IsAuthenticated || st.User == nil {
		return Decision{
			Outcome:    Redirect,
			RedirectTo: loginRedirect(loginPath, currentPath),
		}
	}
	// Every level above plain authentication requires a verified email,
	// privileged accounts included.
	if level != LevelUser && !st.IsVerified() {
		return Decision{Outcome: NeedsVerification}
	}
	switch level {
	case LevelAdmin:
		if !st.IsAdmin() && !st.IsSuperAdmin() {
			return Decision{Outcome: Unauthorized}
		}
	case LevelSuperAdmin:
		if !st.IsSuperAdmin() {
			return Decision{Outcome: Unauthorized}
		}
	}
	return Decision{Outcome: Allow}
}

// loginRedirect appends the attempted path to loginPath as a redirect
// parameter, preserving any query loginPath already carries.
func loginRedirect(loginPath, currentPath string) string {
	u, err := url.Parse(loginPath)
	if err != nil {
		u = &url.URL{Path: loginPath}
	}
	q := u.Query()
	q.Set("redirect", currentPath)
	u.RawQuery = q.Encode()
	return u.String()
}
