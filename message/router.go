package message

import (
	"fmt"
	"log"

	"github.com/byteness/playauth/errors"
)

// Sink receives validated login messages from the Router. The session
// controller implements it; the resolve path behind ManualLogin must be
// idempotent since a message and a timeout can race.
type Sink interface {
	// ManualLogin completes a user-driven login: persist the credential,
	// close the session UI, resolve the active attempt as logged.
	ManualLogin(p AuthPayload)

	// AutomaticLogin records a pre-existing authentication silently:
	// persist the credential and refresh the passive banner, closing nothing.
	AutomaticLogin(p AuthPayload)

	// InteractiveOpen reports whether interactive session UI is currently
	// open. It decides which path an alreadyAuthenticated message takes.
	InteractiveOpen() bool
}

// RouteOptions control per-call routing behavior.
type RouteOptions struct {
	// CheckOrigin enforces the origin allow-list. Messages arriving over
	// an already-authenticated transport (the provider socket) skip it.
	CheckOrigin bool
}

// Router validates inbound messages and dispatches them to the Sink.
type Router struct {
	// AllowedOrigins is the origin allow-list. Nil means AllowedOrigins.
	AllowedOrigins []string

	// Sink receives validated login messages.
	Sink Sink
}

// Route handles one inbound message. Messages from non-allow-listed
// origins are ignored silently regardless of shape: background noise,
// not an attack signal. A message without an id is a protocol violation
// and returns a PROTOCOL_MALFORMED_MESSAGE error, since well-formed
// peers never send one. Informational ids are consumed without side
// effects; unknown ids are ignored.
func (r *Router) Route(msg Message, opts RouteOptions) error {
	if opts.CheckOrigin && !r.originAllowed(msg.Origin) {
		return nil
	}

	if msg.ID == "" {
		return errors.New(errors.ErrCodeProtocolMalformed,
			"malformed message: missing id",
			errors.GetSuggestion(errors.ErrCodeProtocolMalformed), nil)
	}

	switch msg.ID {
	case IDAuthenticationResult:
		if msg.Body == nil || msg.Body.Token == "" {
			return r.malformed(msg.ID)
		}
		log.Printf("Received authentication result, logging in player.")
		r.Sink.ManualLogin(*msg.Body)

	case IDAlreadyAuthenticated:
		if msg.Body == nil || msg.Body.Token == "" {
			return r.malformed(msg.ID)
		}
		log.Printf("Player is already authenticated, logging in player.")
		// With interactive UI open, the parent frame is relaying a
		// user-driven login and the message resolves the attempt.
		// Otherwise it is a silent automatic login.
		if r.Sink.InteractiveOpen() {
			r.Sink.ManualLogin(*msg.Body)
		} else {
			r.Sink.AutomaticLogin(*msg.Body)
		}

	case IDOpenAuthDialog, IDPlayerAuthReady:
		// Informational; consumed by the hosted-platform flow and the
		// automatic-login listener. No credential side effects.
	}

	return nil
}

func (r *Router) malformed(id string) error {
	return errors.New(errors.ErrCodeProtocolMalformed,
		fmt.Sprintf("malformed %s message: missing token", id),
		errors.GetSuggestion(errors.ErrCodeProtocolMalformed), nil)
}

func (r *Router) originAllowed(origin string) bool {
	allowed := r.AllowedOrigins
	if allowed == nil {
		allowed = AllowedOrigins
	}
	for _, o := range allowed {
		if origin == o {
			return true
		}
	}
	return false
}
