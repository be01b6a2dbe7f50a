// Package ui defines the presentation collaborators of the authentication
// flow. Rendering is out of scope for this module: the flow calls these
// interfaces and receives back opaque handles; what they draw is up to
// the embedding application. A terminal implementation is provided for
// the CLI.
package ui

// BannerState describes the passive sign-in banner.
type BannerState struct {
	// Authenticated selects the signed-in banner variant.
	Authenticated bool

	// Username is shown on the signed-in variant; may be empty.
	Username string
}

// Container is the interactive waiting UI mounted for one authentication
// attempt: a loader, an optional embedded login frame, and a text area
// for status and fallback links.
type Container interface {
	// ShowStatus reports the registration-check result to the user.
	ShowStatus(platform string, registered bool)

	// ShowFallbackLink exposes the login URL with a reopen action, for
	// the case where a popup blocker prevented the window from opening.
	ShowFallbackLink(url string, reopen func())

	// ShowIframe embeds the login page inside the container.
	// Implementations without an embeddable frame may ignore it.
	ShowIframe(url string)

	// Close removes the container. Idempotent.
	Close()
}

// Surface is the drawing surface the flow mounts UI into.
type Surface interface {
	// OpenContainer mounts the interactive waiting UI. onDismiss is
	// invoked when the user explicitly closes it. Returns an error when
	// the surface has no mount point.
	OpenContainer(onDismiss func()) (Container, error)

	// ShowBanner displays (or replaces) the passive sign-in banner.
	ShowBanner(state BannerState)

	// HideBanner hides the banner without removing it, so it can be
	// shown again if the attempt is dismissed.
	HideBanner()

	// RemoveBanner removes the banner entirely.
	RemoveBanner()

	// NotifyLoggedIn shows a transient signed-in notification.
	NotifyLoggedIn(username string)

	// NotifyLoggedOut shows a transient signed-out notification.
	NotifyLoggedOut()

	// NotifyError shows a transient failure notification.
	NotifyError()

	// Focus returns input focus to the application surface.
	Focus()
}

// OverlayEvent is a terminal event reported by a native browser overlay.
type OverlayEvent int

const (
	// OverlayClosed means the user explicitly closed the overlay.
	OverlayClosed OverlayEvent = iota

	// OverlayFailed means the overlay could not present the page.
	OverlayFailed
)

// Overlay is a native in-app browser overlay (mobile safari-style view
// or desktop shell equivalent).
type Overlay interface {
	// Available reports whether the overlay can be presented on this platform.
	Available() bool

	// Show presents the URL and returns a channel of terminal events.
	// The channel is closed after the first event. Show returns an error
	// when the overlay is installed but cannot open.
	Show(url string) (<-chan OverlayEvent, error)

	// Hide dismisses the overlay if it is showing. Idempotent.
	Hide()
}

// NopSurface implements Surface with no-ops. Useful for headless flows
// and as an embedding default.
type NopSurface struct{}

// NopContainer is the Container returned by NopSurface.
type NopContainer struct{}

func (NopContainer) ShowStatus(platform string, registered bool) {}
func (NopContainer) ShowFallbackLink(url string, reopen func())  {}
func (NopContainer) ShowIframe(url string)                       {}
func (NopContainer) Close()                                      {}

func (NopSurface) OpenContainer(onDismiss func()) (Container, error) { return NopContainer{}, nil }
func (NopSurface) ShowBanner(state BannerState)                      {}
func (NopSurface) HideBanner()                                       {}
func (NopSurface) RemoveBanner()                                     {}
func (NopSurface) NotifyLoggedIn(username string)                    {}
func (NopSurface) NotifyLoggedOut()                                  {}
func (NopSurface) NotifyError()                                      {}
func (NopSurface) Focus()                                            {}
