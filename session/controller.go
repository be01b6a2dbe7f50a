// Package session owns the authentication session lifecycle: it mounts
// the waiting UI, checks game registration, runs the platform's channel
// strategy, and applies the terminal side effects of every attempt.
//
// # Single live attempt
//
// At most one attempt is live at a time. Opening a new attempt first
// interrupts and drains the previous one; logging out interrupts the
// live attempt before clearing the stored credential. Every terminal
// transition releases the attempt's resources: the bus subscription,
// the timeout timer, the waiting container.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/byteness/playauth/channel"
	"github.com/byteness/playauth/credentials"
	autherrors "github.com/byteness/playauth/errors"
	"github.com/byteness/playauth/logging"
	"github.com/byteness/playauth/message"
	"github.com/byteness/playauth/platform"
	"github.com/byteness/playauth/provider"
	"github.com/byteness/playauth/ui"
)

// DefaultTimeout bounds how long an attempt may stay open before it is
// abandoned.
const DefaultTimeout = 15 * time.Minute

// interruptReason records why a live attempt was cancelled from outside
// the channel strategy.
type interruptReason int

const (
	reasonNone interruptReason = iota
	// reasonTimeout: the attempt timer fired. Cleaned up silently.
	reasonTimeout
	// reasonUserDismiss: the user closed the waiting container.
	reasonUserDismiss
	// reasonLogout: Logout interrupted the attempt. No banner redisplay,
	// Logout owns the notifications.
	reasonLogout
	// reasonPreempted: a newer Open replaced this attempt.
	reasonPreempted
)

// attempt is one live authentication attempt.
type attempt struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	reason interruptReason
}

// interrupt cancels the attempt, recording the first reason only.
func (a *attempt) interrupt(r interruptReason) {
	a.mu.Lock()
	if a.reason == reasonNone {
		a.reason = r
	}
	a.mu.Unlock()
	a.cancel()
}

func (a *attempt) interruptReason() interruptReason {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reason
}

// Controller drives authentication attempts for one game on one
// platform. The zero value is not usable; populate GameID, Platform,
// Store, Bus and Surface at minimum.
type Controller struct {
	// GameID identifies the application with the provider.
	GameID string

	// Platform selects the channel strategy.
	Platform platform.Platform

	// Endpoints are the provider roots used to build flow URLs.
	Endpoints provider.Endpoints

	// Registration probes whether the game is registered. Nil builds a
	// default checker over Endpoints.
	Registration *provider.RegistrationChecker

	// Store persists the credential across launches.
	Store *credentials.Store

	// Bus carries inbound login results and outbound parent-frame
	// messages.
	Bus message.Bus

	// Surface is where banners, containers and notifications appear.
	// Nil means no UI.
	Surface ui.Surface

	// Overlay is the native in-app browser overlay, used by the
	// native-mobile-socket strategy. May be nil.
	Overlay ui.Overlay

	// PreferOverlay selects the overlay strategy instead of the socket
	// flow on platforms that carry a native overlay. Ignored when
	// Overlay is nil.
	PreferOverlay bool

	// Opener opens URLs in the system browser. Nil means the default
	// browser opener.
	Opener channel.Opener

	// Dialer performs websocket dials for socket strategies. Nil means
	// the default dialer.
	Dialer *websocket.Dialer

	// Logger records flow events. Nil discards them.
	Logger logging.Logger

	// Timeout bounds one attempt; zero means DefaultTimeout.
	Timeout time.Duration

	// AllowedOrigins overrides the inbound origin allow-list.
	AllowedOrigins []string

	// NewStrategy overrides the per-platform strategy selection. The
	// container is the attempt's waiting UI, possibly nil.
	NewStrategy func(p platform.Platform, container ui.Container) channel.Strategy

	// StopAutomaticLogin, when set, is invoked at the start of every
	// Open: a manual login preempts the automatic login listener.
	StopAutomaticLogin func()

	mu     sync.Mutex
	state  State
	active *attempt
}

// State returns the session's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == "" {
		return StateIdle
	}
	return c.state
}

// IsOpen reports whether an attempt is currently live.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Open runs one authentication attempt and blocks until it ends. Any
// previous attempt is interrupted first. The returned outcome is
// logged, errored or dismissed; the credential is already persisted
// when logged is returned.
func (c *Controller) Open(ctx context.Context, opts OpenOptions) channel.Outcome {
	if c.StopAutomaticLogin != nil {
		c.StopAutomaticLogin()
	}

	actx, cancel := context.WithCancel(ctx)
	a := &attempt{cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	prev := c.active
	c.active = a
	c.state = StateOpening
	c.mu.Unlock()
	if prev != nil {
		prev.interrupt(reasonPreempted)
		<-prev.done
	}

	defer func() {
		cancel()
		close(a.done)
		c.mu.Lock()
		if c.active == a {
			c.active = nil
			c.state = StateIdle
		}
		c.mu.Unlock()
	}()

	if c.GameID == "" {
		log.Printf("The game id is missing, the authentication is not properly set up.")
		c.surface().NotifyError()
		return c.settleEarly(channel.OutcomeErrored, autherrors.ErrCodeConfigMissingGameID)
	}

	container, err := c.surface().OpenContainer(func() {
		a.interrupt(reasonUserDismiss)
	})
	if err != nil {
		log.Printf("Error opening the authentication container: %s", err)
		c.surface().NotifyError()
		return c.settleEarly(channel.OutcomeErrored, autherrors.ErrCodeTransportMountMissing)
	}
	defer container.Close()

	c.surface().HideBanner()

	registered, regErr := c.registration().Check(actx, c.GameID)
	container.ShowStatus(c.Platform.String(), registered)
	if regErr != nil || !registered {
		if regErr == nil {
			regErr = autherrors.WithContext(autherrors.New(autherrors.ErrCodeGameNotRegistered,
				"the game is not registered with the provider",
				autherrors.GetSuggestion(autherrors.ErrCodeGameNotRegistered), nil),
				"gameId", c.GameID)
		}
		log.Printf("Authentication is not available: %s", regErr)
		c.surface().NotifyError()
		return c.settleEarly(channel.OutcomeErrored, autherrors.GetCode(regErr))
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	timer := time.AfterFunc(timeout, func() {
		a.interrupt(reasonTimeout)
	})
	defer timer.Stop()

	c.mu.Lock()
	c.state = StateWaiting
	c.mu.Unlock()

	req := channel.OpenRequest{
		AuthURL: func(connectionID string) string {
			return c.Endpoints.AuthURL(c.GameID, provider.AuthURLOptions{
				ConnectionID:      connectionID,
				DisableGuestLogin: opts.DisableGuestLogin,
				Extra:             opts.Extra,
			})
		},
		SocketURL:         c.Endpoints.SocketURL(c.GameID),
		GameID:            c.GameID,
		DisableGuestLogin: opts.DisableGuestLogin,
		Login:             c.saveLogin,
		Container:         container,
	}

	outcome := c.strategyFor(c.Platform, container).Open(actx, req)
	return c.settle(outcome, a.interruptReason())
}

// settleEarly applies the side effects of an attempt that failed before
// any login page was presented. errCode is the structured code of the
// failure, recorded in the flow log.
func (c *Controller) settleEarly(outcome channel.Outcome, errCode string) channel.Outcome {
	c.mu.Lock()
	c.state = StateErrored
	c.mu.Unlock()
	c.logFlow("authentication", outcome, errCode)
	return outcome
}

// settle releases the attempt's UI and applies the terminal side
// effects of its outcome.
func (c *Controller) settle(outcome channel.Outcome, reason interruptReason) channel.Outcome {
	if c.Overlay != nil {
		c.Overlay.Hide()
	}

	// A fired timer surfaces as a dismissal through context
	// cancellation; it counts as a failure, cleaned up silently.
	if outcome == channel.OutcomeDismissed && reason == reasonTimeout {
		outcome = channel.OutcomeErrored
	}

	switch outcome {
	case channel.OutcomeLogged:
		c.setState(StateLogged)
		c.surface().RemoveBanner()
		c.surface().NotifyLoggedIn(c.Store.Username())
		c.surface().Focus()

	case channel.OutcomeErrored:
		c.setState(StateErrored)
		if reason != reasonTimeout {
			c.surface().NotifyError()
		}
		c.surface().Focus()

	case channel.OutcomeDismissed:
		c.setState(StateDismissed)
		switch reason {
		case reasonLogout, reasonPreempted:
			// The interrupting operation owns the UI from here.
		default:
			c.DisplayBanner()
			c.surface().Focus()
		}
	}

	c.logFlow("authentication", outcome, reasonLabel(reason))
	return outcome
}

// saveLogin persists a login result the moment it arrives.
func (c *Controller) saveLogin(p message.AuthPayload) {
	cred := credentials.Credential{UserID: p.UserID, Username: p.Username, Token: p.Token}
	if err := c.Store.Save(cred); err != nil {
		log.Printf("Error saving the player's credential: %s", err)
	}
}

// Logout interrupts any live attempt, clears the stored credential and
// updates the UI.
func (c *Controller) Logout() error {
	c.mu.Lock()
	prev := c.active
	c.mu.Unlock()
	if prev != nil {
		prev.interrupt(reasonLogout)
		<-prev.done
	}

	err := c.Store.Clear()
	c.surface().RemoveBanner()
	c.surface().NotifyLoggedOut()
	c.logFlow("logout", "", "")
	return err
}

// DisplayBanner shows the passive sign-in banner reflecting the stored
// credential.
func (c *Controller) DisplayBanner() {
	c.surface().ShowBanner(ui.BannerState{
		Authenticated: c.Store.IsAuthenticated(),
		Username:      c.Store.Username(),
	})
}

// RefreshBanner reloads the stored credential and redraws the banner.
func (c *Controller) RefreshBanner() {
	if err := c.Store.Reload(); err != nil {
		log.Printf("Error reloading the player's credential: %s", err)
	}
	c.DisplayBanner()
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) surface() ui.Surface {
	if c.Surface == nil {
		return ui.NopSurface{}
	}
	return c.Surface
}

func (c *Controller) opener() channel.Opener {
	if c.Opener == nil {
		return channel.BrowserOpener{}
	}
	return c.Opener
}

func (c *Controller) registration() *provider.RegistrationChecker {
	if c.Registration == nil {
		return &provider.RegistrationChecker{Endpoints: c.Endpoints}
	}
	return c.Registration
}

func (c *Controller) logger() logging.Logger {
	if c.Logger == nil {
		return logging.NewNopLogger()
	}
	return c.Logger
}

func (c *Controller) logFlow(event string, outcome channel.Outcome, errLabel string) {
	entry := logging.NewFlowLogEntry(event)
	entry.Platform = c.Platform.String()
	entry.GameID = c.GameID
	entry.Outcome = outcome.String()
	entry.Error = errLabel
	c.logger().LogFlow(entry)
}

func reasonLabel(r interruptReason) string {
	switch r {
	case reasonTimeout:
		return "timeout"
	case reasonUserDismiss:
		return "user dismissed"
	case reasonLogout:
		return "logout"
	case reasonPreempted:
		return "preempted"
	}
	return ""
}

// strategyFor selects the channel strategy for a platform. The
// NewStrategy hook takes precedence when set.
func (c *Controller) strategyFor(p platform.Platform, container ui.Container) channel.Strategy {
	if c.NewStrategy != nil {
		return c.NewStrategy(p, container)
	}
	switch p {
	case platform.DesktopShell:
		if c.PreferOverlay && c.Overlay != nil {
			return &channel.OverlayStrategy{Overlay: c.Overlay, Bus: c.Bus, AllowedOrigins: c.AllowedOrigins}
		}
		return &channel.SocketStrategy{
			Dialer:  c.Dialer,
			Present: c.browserPresenter(container),
		}
	case platform.NativeMobileSocket:
		if c.PreferOverlay && c.Overlay != nil {
			return &channel.OverlayStrategy{Overlay: c.Overlay, Bus: c.Bus, AllowedOrigins: c.AllowedOrigins}
		}
		return &channel.SocketStrategy{
			Dialer:  c.Dialer,
			Present: c.overlayPresenter,
		}
	case platform.WebIframe:
		return &channel.IframeStrategy{Bus: c.Bus, AllowedOrigins: c.AllowedOrigins}
	case platform.HostedPlatformIframe:
		return &channel.HostedStrategy{Bus: c.Bus, AllowedOrigins: c.AllowedOrigins}
	}
	return &channel.WindowStrategy{Bus: c.Bus, Opener: c.opener(), AllowedOrigins: c.AllowedOrigins}
}

// browserPresenter shows the login URL by opening the system browser,
// with a container fallback link for when that fails silently.
func (c *Controller) browserPresenter(container ui.Container) func(url string, resolve func(channel.Outcome)) {
	return func(url string, resolve func(channel.Outcome)) {
		openWindow := func() {
			if err := c.opener().Open(url); err != nil {
				log.Printf("Failed to open the authentication page in the browser: %s", err)
			}
		}
		openWindow()
		if container != nil {
			container.ShowFallbackLink(url, openWindow)
		}
	}
}

// overlayPresenter shows the login URL in the native browser overlay,
// falling back to the system browser when no overlay is available. An
// explicit close of the overlay dismisses the attempt.
func (c *Controller) overlayPresenter(url string, resolve func(channel.Outcome)) {
	if c.Overlay == nil || !c.Overlay.Available() {
		if err := c.opener().Open(url); err != nil {
			log.Printf("Failed to open the authentication page in the browser: %s", err)
		}
		return
	}

	events, err := c.Overlay.Show(url)
	if err != nil {
		log.Printf("Error opening authentication overlay: %s", err)
		resolve(channel.OutcomeErrored)
		return
	}
	for ev := range events {
		switch ev {
		case ui.OverlayClosed:
			resolve(channel.OutcomeDismissed)
		case ui.OverlayFailed:
			resolve(channel.OutcomeErrored)
		}
	}
	c.Overlay.Hide()
}
