// Package provider builds the URLs used to reach the identity provider
// and checks the game-registration precondition of the login flow.
package provider

import (
	"net/url"
	"strconv"
)

// Default endpoint roots for the provider's production and development
// environments.
const (
	DefaultBaseURL      = "https://gd.games"
	DefaultAPIBaseURL   = "https://api.gdevelop.io"
	DevAPIBaseURL       = "https://api-dev.gdevelop.io"
	DefaultSocketURL    = "wss://api-ws.gdevelop.io"
	DevSocketURL        = "wss://api-ws-dev.gdevelop.io"
	socketConnectionTag = "login"
)

// Endpoints holds the provider roots used to build flow URLs.
type Endpoints struct {
	// BaseURL is the root of the provider's hosted login page.
	BaseURL string

	// APIBaseURL is the root of the provider's REST API.
	APIBaseURL string

	// SocketBaseURL is the root of the provider's play-session socket endpoint.
	SocketBaseURL string

	// Dev marks the development environment; it adds the dev flag to auth URLs.
	Dev bool
}

// DefaultEndpoints returns the endpoint set for the production or
// development environment.
func DefaultEndpoints(dev bool) Endpoints {
	e := Endpoints{
		BaseURL:       DefaultBaseURL,
		APIBaseURL:    DefaultAPIBaseURL,
		SocketBaseURL: DefaultSocketURL,
		Dev:           dev,
	}
	if dev {
		e.APIBaseURL = DevAPIBaseURL
		e.SocketBaseURL = DevSocketURL
	}
	return e
}

// AuthURLOptions carries the per-attempt parameters of the hosted login page.
type AuthURLOptions struct {
	// ConnectionID correlates the page with an open socket, so the
	// provider can route the result back over it. Socket flows only.
	ConnectionID string

	// DisableGuestLogin hides the provider's guest login option.
	DisableGuestLogin bool

	// Extra is appended verbatim as string key/value query parameters.
	Extra map[string]string
}

// AuthURL builds the hosted login page URL for a game.
func (e Endpoints) AuthURL(gameID string, opts AuthURLOptions) string {
	params := url.Values{}
	params.Set("gameId", gameID)
	if opts.ConnectionID != "" {
		params.Set("connectionId", opts.ConnectionID)
	}
	if e.Dev {
		params.Set("dev", "true")
	}
	params.Set("allowLoginProviders", "true")
	params.Set("disableGuestLogin", strconv.FormatBool(opts.DisableGuestLogin))
	for k, v := range opts.Extra {
		params.Set(k, v)
	}
	return e.BaseURL + "/auth?" + params.Encode()
}

// SocketURL builds the play-session socket URL used by the login flow.
func (e Endpoints) SocketURL(gameID string) string {
	params := url.Values{}
	params.Set("gameId", gameID)
	params.Set("connectionType", socketConnectionTag)
	return e.SocketBaseURL + "/play?" + params.Encode()
}

// registrationURL builds the public-game probe URL.
func (e Endpoints) registrationURL(gameID string) string {
	return e.APIBaseURL + "/game/public-game/" + url.PathEscape(gameID)
}
