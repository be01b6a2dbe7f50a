package channel

import (
	"context"
	"log"

	"github.com/byteness/playauth/message"
)

// Preferred geometry of the login browsing context, for bridges that can
// control window placement. The window is centered on screen.
const (
	DefaultWindowWidth  = 500
	DefaultWindowHeight = 600
)

// WindowStrategy opens the login page in a new top-level browsing
// context and listens for the result on the message bus. Used on
// standalone web.
type WindowStrategy struct {
	// Bus delivers the login window's result messages.
	Bus message.Bus

	// Opener opens the browsing context. A failed open is logged but not
	// fatal: a popup blocker may be interfering, and the fallback link
	// lets the user open the page themselves.
	Opener Opener

	// AllowedOrigins overrides the default inbound origin allow-list.
	AllowedOrigins []string
}

func (s *WindowStrategy) Open(ctx context.Context, req OpenRequest) Outcome {
	url := req.AuthURL("")

	r := newResolver()
	cancel := subscribeInteractive(s.Bus, s.AllowedOrigins, req, r)
	defer cancel()

	openWindow := func() {
		if err := s.Opener.Open(url); err != nil {
			log.Printf("Failed to open browser: %s", err)
		}
	}
	openWindow()

	// Expose the link in case a popup blocker prevented the window from
	// opening.
	if req.Container != nil {
		req.Container.ShowFallbackLink(url, openWindow)
	}

	return r.wait(ctx)
}
