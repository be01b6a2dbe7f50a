package channel

import (
	"context"

	autherrors "github.com/byteness/playauth/errors"
	"github.com/byteness/playauth/message"
)

// IframeStrategy embeds the login page in a pre-existing mount point and
// listens for the result on the message bus, without opening a new
// top-level browsing context. Used only in trusted preview contexts that
// explicitly allow iframe-based authentication.
type IframeStrategy struct {
	// Bus delivers the embedded page's result messages.
	Bus message.Bus

	// AllowedOrigins overrides the default inbound origin allow-list.
	AllowedOrigins []string
}

func (s *IframeStrategy) Open(ctx context.Context, req OpenRequest) Outcome {
	if req.Container == nil {
		logFailure(autherrors.ErrCodeTransportMountMissing,
			"can't open an authentication iframe, no container was opened for it", nil)
		return OutcomeErrored
	}

	r := newResolver()
	cancel := subscribeInteractive(s.Bus, s.AllowedOrigins, req, r)
	defer cancel()

	req.Container.ShowIframe(req.AuthURL(""))

	return r.wait(ctx)
}
