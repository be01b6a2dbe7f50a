package channel

import (
	"context"

	autherrors "github.com/byteness/playauth/errors"
	"github.com/byteness/playauth/message"
	"github.com/byteness/playauth/ui"
)

// OverlayStrategy presents the login page in a native in-app browser
// overlay. Used on the desktop shell and on native mobile when the
// socket flow is not preferred. An explicit close of the overlay is a
// dismissal; an unavailable overlay is a transport error.
type OverlayStrategy struct {
	// Overlay is the native overlay component.
	Overlay ui.Overlay

	// Bus delivers login results posted back by the overlay's page.
	Bus message.Bus

	// AllowedOrigins overrides the default inbound origin allow-list.
	AllowedOrigins []string
}

func (s *OverlayStrategy) Open(ctx context.Context, req OpenRequest) Outcome {
	if s.Overlay == nil || !s.Overlay.Available() {
		logFailure(autherrors.ErrCodeTransportOverlayUnavailable,
			"native browser overlay is not available", nil)
		return OutcomeErrored
	}

	url := req.AuthURL("")

	r := newResolver()
	cancel := subscribeInteractive(s.Bus, s.AllowedOrigins, req, r)
	defer cancel()

	events, err := s.Overlay.Show(url)
	if err != nil {
		logFailure(autherrors.ErrCodeTransportOverlayUnavailable,
			"error opening authentication overlay", err)
		return OutcomeErrored
	}
	defer s.Overlay.Hide()

	go func() {
		for ev := range events {
			switch ev {
			case ui.OverlayClosed:
				r.resolve(OutcomeDismissed)
			case ui.OverlayFailed:
				r.resolve(OutcomeErrored)
			}
		}
	}()

	return r.wait(ctx)
}
