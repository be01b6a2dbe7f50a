package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// TerminalSurface renders the flow's notifications and status as styled
// lines on a writer (normally stderr). It stands in for the in-game
// surface when the flow runs from a terminal.
type TerminalSurface struct {
	// Writer receives the output. Required.
	Writer io.Writer

	// Styled enables color output; leave false when the writer is not a
	// terminal.
	Styled bool

	mu sync.Mutex
}

func (s *TerminalSurface) printf(style lipgloss.Style, format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := fmt.Sprintf(format, args...)
	if s.Styled {
		line = style.Render(line)
	}
	fmt.Fprintln(s.Writer, line)
}

// OpenContainer prints a waiting notice. The terminal has no close
// button, so onDismiss is never invoked; Ctrl-C cancels the context
// instead.
func (s *TerminalSurface) OpenContainer(onDismiss func()) (Container, error) {
	s.printf(infoStyle, "Waiting for authentication (use Ctrl-C to abort)")
	return &terminalContainer{surface: s}, nil
}

func (s *TerminalSurface) ShowBanner(state BannerState) {
	if state.Authenticated {
		username := state.Username
		if username == "" {
			username = "Anonymous"
		}
		s.printf(bannerStyle, "Signed in as %s", username)
		return
	}
	s.printf(bannerStyle, "Not signed in")
}

func (s *TerminalSurface) HideBanner()   {}
func (s *TerminalSurface) RemoveBanner() {}

func (s *TerminalSurface) NotifyLoggedIn(username string) {
	if username == "" {
		username = "Anonymous"
	}
	s.printf(infoStyle, "Signed in as %s", username)
}

func (s *TerminalSurface) NotifyLoggedOut() {
	s.printf(infoStyle, "Signed out")
}

func (s *TerminalSurface) NotifyError() {
	s.printf(errStyle, "Authentication failed")
}

func (s *TerminalSurface) Focus() {}

type terminalContainer struct {
	surface *TerminalSurface
}

func (c *terminalContainer) ShowStatus(platform string, registered bool) {
	if !registered {
		c.surface.printf(errStyle, "This game is not registered with the provider")
	}
}

func (c *terminalContainer) ShowFallbackLink(url string, reopen func()) {
	c.surface.printf(infoStyle, "Open the sign-in page in a browser:\n%s", url)
}

func (c *terminalContainer) ShowIframe(url string) {
	// No embeddable frame in a terminal; show the link instead.
	c.ShowFallbackLink(url, nil)
}

func (c *terminalContainer) Close() {}
