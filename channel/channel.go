// Package channel implements the transport strategies that present the
// provider's login page and deliver the attempt's terminal outcome.
//
// # Strategy contract
//
// Every variant implements Strategy. Open blocks until the attempt ends
// and never returns an error: all failure modes map to OutcomeErrored.
// A popup or overlay failing to open is not by itself a failure - the
// attempt stays pending until a message, a timeout (context
// cancellation), or an explicit dismissal; only transport-level errors
// (socket failure, missing mount point, missing native capability)
// resolve to OutcomeErrored immediately.
//
// Resolution is guarded: a message and a cancellation racing each other
// resolve the attempt exactly once.
package channel

import (
	"context"
	"log"
	"sync"

	"github.com/skratchdot/open-golang/open"

	autherrors "github.com/byteness/playauth/errors"
	"github.com/byteness/playauth/message"
	"github.com/byteness/playauth/ui"
)

// Outcome is the terminal result of an authentication attempt.
type Outcome string

const (
	// OutcomeLogged means the user completed login.
	OutcomeLogged Outcome = "logged"
	// OutcomeErrored means the attempt failed at the transport or protocol level.
	OutcomeErrored Outcome = "errored"
	// OutcomeDismissed means the user or the environment closed the attempt.
	OutcomeDismissed Outcome = "dismissed"
)

// IsValid returns true if the Outcome is a known value.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeLogged, OutcomeErrored, OutcomeDismissed:
		return true
	}
	return false
}

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	return string(o)
}

// OpenRequest carries the per-attempt inputs shared by all variants.
type OpenRequest struct {
	// AuthURL builds the provider login URL. connectionID is empty for
	// variants that do not perform the socket handshake.
	AuthURL func(connectionID string) string

	// SocketURL is the play-session endpoint; socket variant only.
	SocketURL string

	// GameID identifies the application; hosted variant only.
	GameID string

	// DisableGuestLogin is forwarded to the hosting parent frame;
	// hosted variant only.
	DisableGuestLogin bool

	// Login persists the credential the moment a login result arrives.
	Login func(p message.AuthPayload)

	// Container is the interactive waiting UI of this attempt; nil when
	// none is mounted. The iframe variant requires it, the window
	// variants use it for the popup-blocker fallback link.
	Container ui.Container
}

// Strategy presents the login page over one transport and reports the
// terminal outcome.
type Strategy interface {
	Open(ctx context.Context, req OpenRequest) Outcome
}

// Opener opens a URL in a separate top-level browsing context.
type Opener interface {
	Open(url string) error
}

// BrowserOpener opens URLs with the operating system's default browser.
type BrowserOpener struct{}

func (BrowserOpener) Open(url string) error {
	return open.Run(url)
}

// resolver is the attempt's resolve-once guard.
type resolver struct {
	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

func newResolver() *resolver {
	return &resolver{done: make(chan struct{})}
}

func (r *resolver) resolve(o Outcome) {
	r.once.Do(func() {
		r.outcome = o
		close(r.done)
	})
}

// wait blocks until the attempt resolves or the context is cancelled.
// Cancellation reads as a dismissal; the caller decides how to present it.
// A resolution that raced the cancellation still wins: once resolve has
// run, wait reports its outcome.
func (r *resolver) wait(ctx context.Context) Outcome {
	select {
	case <-r.done:
		return r.outcome
	case <-ctx.Done():
		select {
		case <-r.done:
			return r.outcome
		default:
			return OutcomeDismissed
		}
	}
}

// logFailure logs a transport failure under its structured error code.
func logFailure(code, msg string, cause error) {
	err := autherrors.New(code, msg, autherrors.GetSuggestion(code), cause)
	if cause != nil {
		log.Printf("%s: %s: %s", err.Code(), err.Error(), cause)
		return
	}
	log.Printf("%s: %s", err.Code(), err.Error())
}

// subscribeInteractive registers origin-checked routing of bus messages
// for an open interactive attempt. A manual login result persists the
// credential and resolves the attempt. Returns the subscription cancel.
func subscribeInteractive(bus message.Bus, allowedOrigins []string, req OpenRequest, r *resolver) func() {
	login := func(p message.AuthPayload) {
		if req.Login != nil {
			req.Login(p)
		}
		r.resolve(OutcomeLogged)
	}
	router := &message.Router{
		AllowedOrigins: allowedOrigins,
		Sink: message.FuncSink{
			ManualLoginFunc: login,
			// With interactive UI open, alreadyAuthenticated is treated
			// as a user-driven login relayed by the parent frame.
			AutomaticLoginFunc:  login,
			InteractiveOpenFunc: func() bool { return true },
		},
	}
	return bus.Subscribe(func(msg message.Message) {
		if err := router.Route(msg, message.RouteOptions{CheckOrigin: true}); err != nil {
			// Never sent by well-formed peers; must not crash the host.
			log.Printf("Protocol error in authentication message: %s", err)
		}
	})
}
