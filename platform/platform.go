// Package platform classifies the hosting environment into the variant
// set used to pick an authentication channel.
//
// # Platform variants
//
//   - desktop-shell: running inside a desktop shell with a native bridge
//     (previews in the editor, packaged desktop builds).
//   - native-mobile-socket: packaged mobile build with a native bridge;
//     authentication results arrive over a socket.
//   - web-iframe: trusted preview contexts that explicitly allow an
//     embedded iframe for the login page.
//   - hosted-platform-iframe: embedded by the hosting platform, which
//     relays authentication on the application's behalf.
//   - standalone-web: any other web context; a separate browsing context
//     is opened for login.
//
// Detection is a pure function over environment signals; it performs no
// I/O and never fails.
package platform

import "strings"

// Platform identifies how the application is being hosted.
type Platform string

const (
	// DesktopShell indicates a desktop shell with a native bridge.
	DesktopShell Platform = "desktop-shell"
	// NativeMobileSocket indicates a native mobile build using the socket flow.
	NativeMobileSocket Platform = "native-mobile-socket"
	// WebIframe indicates a trusted context where an iframe is allowed.
	WebIframe Platform = "web-iframe"
	// HostedPlatformIframe indicates the app is embedded by the hosting platform.
	HostedPlatformIframe Platform = "hosted-platform-iframe"
	// StandaloneWeb indicates any other web context.
	StandaloneWeb Platform = "standalone-web"
)

// IsValid returns true if the Platform is a known value.
func (p Platform) IsValid() bool {
	switch p {
	case DesktopShell, NativeMobileSocket, WebIframe, HostedPlatformIframe, StandaloneWeb:
		return true
	}
	return false
}

// String returns the string representation of the Platform.
func (p Platform) String() string {
	return string(p)
}

// HostedOrigins are the origins whose embedding marks the app as running
// on the hosting platform. A referrer matches when it starts with one of
// these prefixes.
var HostedOrigins = []string{
	"https://gd.games",
	"http://localhost:4000",
}

// Signals are the environment observations that drive detection.
// They are gathered by the embedding application; this package only
// interprets them.
type Signals struct {
	// HasDesktopBridge reports whether a desktop-shell bridge object is present.
	HasDesktopBridge bool

	// HasMobileBridge reports whether a native mobile bridge is present.
	HasMobileBridge bool

	// Embedded reports whether the document is inside a parent frame.
	Embedded bool

	// Referrer is the document referrer, used to recognize the hosting platform.
	Referrer string

	// PreviewIframeAllowed reports whether this preview context has opted in
	// to iframe-based authentication. Only trusted previews set this.
	PreviewIframeAllowed bool
}

// Detect classifies the environment into exactly one Platform.
// Precedence: desktop bridge, then iframe-allowed preview, then mobile
// bridge, then hosted-platform embedding, then standalone web.
func Detect(s Signals) Platform {
	if s.HasDesktopBridge {
		return DesktopShell
	}
	if s.PreviewIframeAllowed {
		return WebIframe
	}
	if s.HasMobileBridge {
		return NativeMobileSocket
	}
	if s.Embedded && referrerIsHostedPlatform(s.Referrer) {
		return HostedPlatformIframe
	}
	return StandaloneWeb
}

func referrerIsHostedPlatform(referrer string) bool {
	for _, origin := range HostedOrigins {
		if strings.HasPrefix(referrer, origin) {
			return true
		}
	}
	return false
}
