// Package autologin signs the player in without any interaction when
// the hosting platform already knows them. The listener announces
// readiness to the parent frame and waits a short handshake window for
// an already-authenticated reply; silence means the player logs in
// manually later.
package autologin

import (
	"log"
	"sync"
	"time"

	"github.com/byteness/playauth/credentials"
	"github.com/byteness/playauth/logging"
	"github.com/byteness/playauth/message"
	"github.com/byteness/playauth/ui"
)

// HandshakeTimeout is how long the listener waits for the hosting
// platform to reply before standing down.
const HandshakeTimeout = 3 * time.Second

// Listener performs the automatic login handshake with the hosting
// parent frame. Start and Stop are safe for concurrent use.
type Listener struct {
	// Bus posts the readiness announcement and delivers the reply.
	Bus message.Bus

	// Store persists the credential on a successful automatic login.
	Store *credentials.Store

	// Surface reflects the login in the banner. Nil means no UI.
	Surface ui.Surface

	// Logger records flow events. Nil discards them.
	Logger logging.Logger

	// AllowedOrigins overrides the inbound origin allow-list.
	AllowedOrigins []string

	// Timeout overrides the handshake window; zero means HandshakeTimeout.
	Timeout time.Duration

	// Interactive reports whether a manual attempt currently owns the
	// message channel. While it does, the listener leaves login
	// messages to that attempt.
	Interactive func() bool

	mu     sync.Mutex
	cancel func()
	timer  *time.Timer
}

// Start announces readiness to the parent frame and arms the handshake
// window. Starting an already-started listener is a no-op.
func (l *Listener) Start() error {
	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		return nil
	}

	router := &message.Router{
		AllowedOrigins: l.AllowedOrigins,
		Sink: message.FuncSink{
			AutomaticLoginFunc:  l.automaticLogin,
			InteractiveOpenFunc: l.Interactive,
		},
	}
	l.cancel = l.Bus.Subscribe(func(msg message.Message) {
		if err := router.Route(msg, message.RouteOptions{CheckOrigin: true}); err != nil {
			log.Printf("Protocol error in authentication message: %s", err)
		}
	})

	timeout := l.Timeout
	if timeout == 0 {
		timeout = HandshakeTimeout
	}
	l.timer = time.AfterFunc(timeout, l.Stop)
	l.mu.Unlock()

	// Posted outside the lock: a bus may relay the parent's reply
	// synchronously, re-entering the listener through its subscription.
	if err := l.Bus.PostToParent(message.ReadyAnnouncement()); err != nil {
		l.Stop()
		return err
	}
	return nil
}

// Stop deregisters the listener. Idempotent.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *Listener) stopLocked() {
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// automaticLogin persists the relayed credential, reflects it in the
// banner and stands the listener down.
func (l *Listener) automaticLogin(p message.AuthPayload) {
	if err := l.Store.Save(credentials.Credential{UserID: p.UserID, Username: p.Username, Token: p.Token}); err != nil {
		log.Printf("Error saving the player's credential: %s", err)
	}
	l.surface().ShowBanner(ui.BannerState{Authenticated: true, Username: l.Store.Username()})
	l.surface().NotifyLoggedIn(l.Store.Username())
	l.logFlow("automatic_login", "logged")
	l.Stop()
}

// PreviewLogin injects an already-known identity directly, bypassing
// the handshake. Preview hosts that launched the player themselves use
// this path.
func (l *Listener) PreviewLogin(userID, username, token string) error {
	err := l.Store.Save(credentials.Credential{UserID: userID, Username: username, Token: token})
	if err != nil {
		log.Printf("Error saving the player's credential: %s", err)
		return err
	}
	l.surface().ShowBanner(ui.BannerState{Authenticated: true, Username: l.Store.Username()})
	l.logFlow("preview_login", "logged")
	return nil
}

func (l *Listener) surface() ui.Surface {
	if l.Surface == nil {
		return ui.NopSurface{}
	}
	return l.Surface
}

func (l *Listener) logFlow(event, outcome string) {
	logger := l.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	entry := logging.NewFlowLogEntry(event)
	entry.Outcome = outcome
	logger.LogFlow(entry)
}
