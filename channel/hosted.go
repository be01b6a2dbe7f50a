package channel

import (
	"context"
	"log"

	"github.com/byteness/playauth/message"
)

// HostedStrategy delegates login to the hosting parent frame: it posts a
// dialog request and waits for the standard message channel to deliver
// the result. No UI is presented by this side; the parent frame owns the
// whole login experience.
type HostedStrategy struct {
	// Bus posts the dialog request and delivers the relayed result.
	Bus message.Bus

	// AllowedOrigins overrides the default inbound origin allow-list.
	AllowedOrigins []string
}

func (s *HostedStrategy) Open(ctx context.Context, req OpenRequest) Outcome {
	r := newResolver()
	cancel := subscribeInteractive(s.Bus, s.AllowedOrigins, req, r)
	defer cancel()

	if err := s.Bus.PostToParent(message.OpenDialogRequest(req.GameID, req.DisableGuestLogin)); err != nil {
		log.Printf("Error requesting the hosting platform's login dialog: %s", err)
		return OutcomeErrored
	}

	return r.wait(ctx)
}
