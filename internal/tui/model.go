// Package tui is the interactive dashboard. It subscribes to the session
// store and re-renders on every transition; which screen actually shows is
// always decided by the route guard against the latest snapshot, so the UI
// can never display content the session no longer qualifies for.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/errandmate/errandmate/internal/account"
	"github.com/errandmate/errandmate/internal/guard"
	"github.com/errandmate/errandmate/internal/session"
)

// Screen is a guarded destination inside the dashboard.
type Screen struct {
	Name  string
	Path  string
	Level guard.Level
}

// The dashboard's destinations. Paths mirror the web client so redirect
// parameters stay meaningful across both.
var (
	ScreenHome    = Screen{Name: "Home", Path: "/account", Level: guard.LevelUser}
	ScreenProfile = Screen{Name: "Profile", Path: "/account/profile", Level: guard.LevelUser}
	ScreenErrands = Screen{Name: "Errands", Path: "/errands", Level: guard.LevelVerified}
	ScreenAdmin   = Screen{Name: "Admin", Path: "/admin", Level: guard.LevelAdmin}
	ScreenSystem  = Screen{Name: "System", Path: "/admin/system", Level: guard.LevelSuperAdmin}
)

// menuEntry pairs a screen with the visibility rule for its menu item.
// Hiding an entry is presentation only; the route guard still decides access
// if the screen is reached some other way.
type menuEntry struct {
	screen Screen
	key    string
	rule   guard.Rule
}

func defaultMenu() []menuEntry {
	return []menuEntry{
		{screen: ScreenHome, key: "h"},
		{screen: ScreenProfile, key: "p"},
		{screen: ScreenErrands, key: "e", rule: guard.Rule{RequireVerification: true}},
		{screen: ScreenAdmin, key: "a", rule: guard.Rule{RequireAdmin: true}},
		{screen: ScreenSystem, key: "s", rule: guard.Rule{RequireSuperAdmin: true}},
	}
}

// Model represents the dashboard state.
type Model struct {
	mgr    *account.Manager
	state  session.State
	screen Screen
	menu   []menuEntry

	updates <-chan struct{}
	cancel  func()

	spinner  spinner.Model
	width    int
	height   int
	ready    bool
	quitting bool

	styles Styles
}

// Styles contains lipgloss styles for the dashboard.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Muted    lipgloss.Style
	Border   lipgloss.Style
	Key      lipgloss.Style
	KeyDesc  lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Status: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")). // Purple
			Padding(1, 2),
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
		KeyDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
	}
}

// NewModel creates the dashboard model.
func NewModel(mgr *account.Manager) Model {
	updates, cancel := mgr.Store().Subscribe()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mgr:     mgr,
		state:   mgr.Store().Snapshot(),
		screen:  ScreenHome,
		menu:    defaultMenu(),
		updates: updates,
		cancel:  cancel,
		spinner: sp,
		styles:  DefaultStyles(),
	}
}

// Messages

type sessionChangedMsg struct{}

type authInitDoneMsg struct{ err error }

type refreshDoneMsg struct{ err error }

type logoutDoneMsg struct{}

func (m Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.updates
		return sessionChangedMsg{}
	}
}

func (m Model) initAuth() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return authInitDoneMsg{err: m.mgr.InitializeAuth(ctx)}
	}
}

func (m Model) refreshIfStale() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return refreshDoneMsg{err: m.mgr.RefreshIfStale(ctx)}
	}
}

func (m Model) logout() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		m.mgr.Logout(ctx)
		return logoutDoneMsg{}
	}
}

// Init starts the session probe and the update pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.initAuth(), m.waitForUpdate())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case sessionChangedMsg:
		m.state = m.mgr.Store().Snapshot()
		return m, m.waitForUpdate()

	case authInitDoneMsg, refreshDoneMsg, logoutDoneMsg:
		// State arrives through the store subscription; these exist so
		// the commands have something to return.
		m.state = m.mgr.Store().Snapshot()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKeyPress handles keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		m.cancel()
		return m, tea.Quit

	case "r":
		return m, m.refreshIfStale()

	case "x":
		return m, m.logout()

	case "esc":
		m.screen = ScreenHome
		return m, nil
	}

	for _, entry := range m.menu {
		if msg.String() == entry.key {
			m.screen = entry.screen
			return m, m.refreshIfStale()
		}
	}

	return m, nil
}

// Decide evaluates the route guard for the current screen against the
// latest session snapshot.
func (m Model) Decide() guard.Decision {
	return guard.Evaluate(m.state, m.screen.Level, m.screen.Path, m.mgr.LoginPath())
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return m.styles.Muted.Render("Goodbye.") + "\n"
	}
	if !m.ready {
		return "Initializing..."
	}

	switch d := m.Decide(); d.Outcome {
	case guard.Pending:
		return m.renderLoading()
	case guard.Redirect:
		return m.renderLogin(d.RedirectTo)
	case guard.NeedsVerification:
		return m.renderNeedsVerification()
	case guard.Unauthorized:
		return m.renderUnauthorized()
	}

	switch m.screen {
	case ScreenProfile:
		return m.renderProfile()
	case ScreenErrands:
		return m.renderErrands()
	case ScreenAdmin:
		return m.renderAdmin()
	case ScreenSystem:
		return m.renderSystem()
	default:
		return m.renderHome()
	}
}

// visibleMenu filters the menu through each entry's visibility rule.
func (m Model) visibleMenu() []menuEntry {
	var out []menuEntry
	for _, entry := range m.menu {
		if entry.rule.Visible(m.state) {
			out = append(out, entry)
		}
	}
	return out
}
