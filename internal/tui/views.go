package tui

import (
	"fmt"
	"strings"

	"github.com/errandmate/errandmate/internal/account"
	"github.com/errandmate/errandmate/internal/gateway"
	"github.com/errandmate/errandmate/internal/guard"
)

// renderLoading shows the spinner while the session probe is in flight.
func (m Model) renderLoading() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Errand Mate"))
	b.WriteString("\n\n")
	b.WriteString(m.spinner.View())
	b.WriteString(m.styles.Muted.Render(" Checking your session..."))
	b.WriteString("\n")

	return b.String()
}

// renderLogin is shown when the guard redirects. The terminal client cannot
// pop a browser login, so it names the destination and how to get there.
func (m Model) renderLogin(redirectTo string) string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Sign in required"))
	b.WriteString("\n\n")

	box := fmt.Sprintf("You need to sign in to view %s.\n\nRun %s in another terminal, then press %s here.",
		m.styles.Status.Render(m.screen.Name),
		m.styles.Key.Render("errandmate login"),
		m.styles.Key.Render("r"))
	b.WriteString(m.styles.Border.Render(box))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("Destination: " + redirectTo))
	b.WriteString("\n\n")
	b.WriteString(m.renderHelpLine())

	return b.String()
}

// renderNeedsVerification keeps the user on the current screen with a
// verify-your-email prompt in place of the content.
func (m Model) renderNeedsVerification() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Verify your email"))
	b.WriteString("\n\n")

	email := ""
	if m.state.User != nil {
		email = m.state.User.Email
	}
	box := fmt.Sprintf("%s requires a verified email address.\n\nWe sent a link to %s.\nRun %s with the code from that email.",
		m.styles.Status.Render(m.screen.Name),
		m.styles.Status.Render(email),
		m.styles.Key.Render("errandmate verify <token>"))
	b.WriteString(m.styles.Border.BorderForeground(m.styles.Warning.GetForeground()).Render(box))
	b.WriteString("\n\n")
	b.WriteString(m.renderHelpLine())

	return b.String()
}

// renderUnauthorized keeps the user in place with an access-denied notice.
func (m Model) renderUnauthorized() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Access denied"))
	b.WriteString("\n\n")
	box := fmt.Sprintf("Your account does not have access to %s.",
		m.styles.Status.Render(m.screen.Name))
	b.WriteString(m.styles.Border.BorderForeground(m.styles.Error.GetForeground()).Render(box))
	b.WriteString("\n\n")
	b.WriteString(m.renderHelpLine())

	return b.String()
}

// renderHome is the landing screen after sign-in.
func (m Model) renderHome() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Errand Mate"))
	b.WriteString("\n")

	user := m.state.User
	b.WriteString(m.styles.Subtitle.Render("Signed in as ") + m.styles.Status.Render(user.Name))
	b.WriteString("\n\n")

	var lines []string
	lines = append(lines, "Email:    "+user.Email)
	lines = append(lines, "Provider: "+account.ProviderLabel(user.Provider))
	if m.state.HasProfile() {
		lines = append(lines, "Role:     "+account.RoleLabel(m.state.Profile.Role))
	}
	if !user.LastLogin.IsZero() {
		lines = append(lines, "Last login: "+account.FormatDate(user.LastLogin))
	}
	b.WriteString(m.styles.Border.Render(strings.Join(lines, "\n")))
	b.WriteString("\n\n")

	// Prompts for what the account is still missing, each behind an
	// inverse visibility rule so they disappear once satisfied.
	var prompts []string
	if (guard.Rule{RequireVerification: true, Inverse: true}).Visible(m.state) {
		prompts = append(prompts, m.styles.Warning.Render("! ")+"Verify your email to post errands.")
	}
	if !m.state.HasProfile() {
		prompts = append(prompts, m.styles.Warning.Render("! ")+"Finish profile setup with "+m.styles.Key.Render("errandmate profile role")+".")
	}
	if len(prompts) > 0 {
		b.WriteString(strings.Join(prompts, "\n"))
		b.WriteString("\n\n")
	}

	if m.state.Completeness != nil {
		b.WriteString(m.renderCompletenessBar(*m.state.Completeness))
		b.WriteString("\n\n")
	}

	if m.state.Err != "" {
		b.WriteString(m.styles.Error.Render("Error: ") + m.state.Err)
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderMenu())
	b.WriteString("\n")
	b.WriteString(m.renderHelpLine())

	return b.String()
}

// renderCompletenessBar renders the profile completeness score as a bar.
func (m Model) renderCompletenessBar(value int) string {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	barWidth := 30
	filled := value * barWidth / 100

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar.WriteString("█")
		} else {
			bar.WriteString("░")
		}
	}
	bar.WriteString("]")

	label := m.styles.Muted.Render("Profile completeness ")
	return label + m.styles.Status.Render(bar.String()) + m.styles.Muted.Render(fmt.Sprintf(" %d%%", value))
}

// renderProfile shows the full profile record.
func (m Model) renderProfile() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Your profile"))
	b.WriteString("\n\n")

	if !m.state.HasProfile() {
		b.WriteString(m.styles.Muted.Render("No profile yet. Pick a role with "))
		b.WriteString(m.styles.Key.Render("errandmate profile role"))
		b.WriteString(m.styles.Muted.Render(" to get started."))
		b.WriteString("\n\n")
		b.WriteString(m.renderHelpLine())
		return b.String()
	}

	p := m.state.Profile
	var lines []string
	lines = append(lines, "Role:   "+account.RoleLabel(p.Role))
	if p.Bio != "" {
		lines = append(lines, "Bio:    "+p.Bio)
	}
	if p.Location != nil {
		loc := p.Location.GhanaPostGPS
		if p.Location.City != "" {
			loc += ", " + p.Location.City
		}
		lines = append(lines, "Where:  "+loc)
	}
	if p.ContactDetails != nil {
		lines = append(lines, "Phone:  "+p.ContactDetails.PrimaryContact)
	}
	for _, h := range p.SocialMediaHandles {
		lines = append(lines, fmt.Sprintf("Social: %s (%s)", h.Username, h.Network))
	}
	b.WriteString(m.styles.Border.Render(strings.Join(lines, "\n")))
	b.WriteString("\n\n")

	if m.state.Completeness != nil {
		b.WriteString(m.renderCompletenessBar(*m.state.Completeness))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderHelpLine())
	return b.String()
}

// renderErrands is the verified-only marketplace screen. What shows depends
// on the marketplace role.
func (m Model) renderErrands() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Errands"))
	b.WriteString("\n\n")

	switch {
	case m.state.HasProfile() && m.state.Profile.Role == gateway.ProfileRoleProvider:
		b.WriteString(m.styles.Status.Render("Open requests near you"))
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("Requests from customers in your area will appear here."))
	case m.state.HasProfile():
		b.WriteString(m.styles.Status.Render("Your errands"))
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("Post a request and track its progress here."))
	default:
		b.WriteString(m.styles.Muted.Render("Choose a marketplace role first with "))
		b.WriteString(m.styles.Key.Render("errandmate profile role"))
		b.WriteString(m.styles.Muted.Render("."))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderHelpLine())

	return b.String()
}

// renderAdmin is the admin panel.
func (m Model) renderAdmin() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Admin"))
	b.WriteString("\n\n")

	name := m.state.User.Name
	if m.state.User.SystemAdminName != "" {
		name = m.state.User.SystemAdminName
	}
	b.WriteString(m.styles.Border.Render("Moderation tools for " + m.styles.Status.Render(name)))
	b.WriteString("\n\n")

	// Escalation prompt for admins who are not super admins.
	if (guard.Rule{RequireSuperAdmin: true, Inverse: true}).Visible(m.state) {
		b.WriteString(m.styles.Muted.Render("System configuration requires super admin access."))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderHelpLine())
	return b.String()
}

// renderSystem is the super-admin-only system screen.
func (m Model) renderSystem() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("System"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Border.Render("Backend: " + m.styles.Status.Render("reachable")))
	b.WriteString("\n\n")
	b.WriteString(m.renderHelpLine())

	return b.String()
}

// renderMenu renders the destinations this session may see.
func (m Model) renderMenu() string {
	entries := m.visibleMenu()
	if len(entries) == 0 {
		return ""
	}

	items := make([]string, 0, len(entries))
	for _, e := range entries {
		items = append(items, m.styles.Key.Render(e.key)+" "+m.styles.KeyDesc.Render(e.screen.Name))
	}
	return strings.Join(items, "  ")
}

// renderHelpLine renders the persistent key hints.
func (m Model) renderHelpLine() string {
	helpItems := []string{
		m.styles.Key.Render("r") + " refresh",
		m.styles.Key.Render("x") + " sign out",
		m.styles.Key.Render("esc") + " home",
		m.styles.Key.Render("q") + " quit",
	}
	return m.styles.Muted.Render(strings.Join(helpItems, " • "))
}
