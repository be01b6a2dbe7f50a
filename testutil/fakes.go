// Package testutil provides in-memory fakes for the authentication
// flow's collaborators: the message bus, the UI surface, the native
// overlay, and the browser opener.
package testutil

import (
	"sync"

	"github.com/byteness/playauth/message"
	"github.com/byteness/playauth/ui"
)

// ============================================================================
// Message bus
// ============================================================================

// FakeBus is an in-memory message.Bus. Deliver fans an inbound message
// out to current subscribers synchronously.
type FakeBus struct {
	mu      sync.Mutex
	subs    map[int]func(message.Message)
	nextID  int
	posted  []message.Outbound
	PostErr error
}

// NewFakeBus creates an empty FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{subs: make(map[int]func(message.Message))}
}

// Subscribe implements message.Bus.
func (b *FakeBus) Subscribe(fn func(message.Message)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
		})
	}
}

// PostToParent implements message.Bus, recording the outbound message.
func (b *FakeBus) PostToParent(msg message.Outbound) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.PostErr != nil {
		return b.PostErr
	}
	b.posted = append(b.posted, msg)
	return nil
}

// Deliver dispatches an inbound message to all current subscribers.
func (b *FakeBus) Deliver(msg message.Message) {
	b.mu.Lock()
	handlers := make([]func(message.Message), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(msg)
	}
}

// PostedToParent returns the messages posted to the parent frame so far.
func (b *FakeBus) PostedToParent() []message.Outbound {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]message.Outbound, len(b.posted))
	copy(out, b.posted)
	return out
}

// SubscriberCount returns the number of live subscriptions. Dangling
// listener checks hinge on this returning to zero.
func (b *FakeBus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// ============================================================================
// UI surface
// ============================================================================

// RecordingContainer records Container calls. Accessors copy under the
// lock so tests can poll while a flow is still running.
type RecordingContainer struct {
	mu            sync.Mutex
	statusCalls   []StatusCall
	fallbackURLs  []string
	iframeURLs    []string
	closeCount    int
	reopenActions []func()
}

// StatusCall is one recorded ShowStatus invocation.
type StatusCall struct {
	Platform   string
	Registered bool
}

func (c *RecordingContainer) ShowStatus(platform string, registered bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusCalls = append(c.statusCalls, StatusCall{platform, registered})
}

func (c *RecordingContainer) ShowFallbackLink(url string, reopen func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallbackURLs = append(c.fallbackURLs, url)
	c.reopenActions = append(c.reopenActions, reopen)
}

func (c *RecordingContainer) ShowIframe(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.iframeURLs = append(c.iframeURLs, url)
}

func (c *RecordingContainer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCount++
}

// StatusCalls returns the recorded ShowStatus invocations.
func (c *RecordingContainer) StatusCalls() []StatusCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StatusCall, len(c.statusCalls))
	copy(out, c.statusCalls)
	return out
}

// FallbackURLs returns the URLs shown as fallback links.
func (c *RecordingContainer) FallbackURLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.fallbackURLs))
	copy(out, c.fallbackURLs)
	return out
}

// IframeURLs returns the URLs mounted as iframes.
func (c *RecordingContainer) IframeURLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.iframeURLs))
	copy(out, c.iframeURLs)
	return out
}

// Reopen invokes the reopen action of the most recent fallback link.
func (c *RecordingContainer) Reopen() {
	c.mu.Lock()
	var fn func()
	if len(c.reopenActions) > 0 {
		fn = c.reopenActions[len(c.reopenActions)-1]
	}
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Closed reports whether Close was called at least once.
func (c *RecordingContainer) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount > 0
}

// RecordingSurface records Surface calls and lets tests drive the
// container dismiss callback.
type RecordingSurface struct {
	mu sync.Mutex

	// OpenErr, when set, makes OpenContainer fail (no mount point).
	OpenErr error

	Containers    []*RecordingContainer
	Banners       []ui.BannerState
	BannerHidden  int
	BannerRemoved int
	LoggedIn      []string
	LoggedOut     int
	ErrorCount    int
	FocusCount    int

	dismiss func()
}

func (s *RecordingSurface) OpenContainer(onDismiss func()) (ui.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	c := &RecordingContainer{}
	s.Containers = append(s.Containers, c)
	s.dismiss = onDismiss
	return c, nil
}

func (s *RecordingSurface) ShowBanner(state ui.BannerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Banners = append(s.Banners, state)
}

func (s *RecordingSurface) HideBanner() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BannerHidden++
}

func (s *RecordingSurface) RemoveBanner() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BannerRemoved++
}

func (s *RecordingSurface) NotifyLoggedIn(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LoggedIn = append(s.LoggedIn, username)
}

func (s *RecordingSurface) NotifyLoggedOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LoggedOut++
}

func (s *RecordingSurface) NotifyError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ErrorCount++
}

func (s *RecordingSurface) Focus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FocusCount++
}

// DismissContainer invokes the onDismiss callback of the most recently
// opened container, simulating the user closing the waiting UI.
func (s *RecordingSurface) DismissContainer() {
	s.mu.Lock()
	fn := s.dismiss
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// LastContainer returns the most recently opened container, or nil.
func (s *RecordingSurface) LastContainer() *RecordingContainer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Containers) == 0 {
		return nil
	}
	return s.Containers[len(s.Containers)-1]
}

// ============================================================================
// Native overlay
// ============================================================================

// ScriptedOverlay is a ui.Overlay whose terminal events are emitted by
// the test.
type ScriptedOverlay struct {
	mu sync.Mutex

	// Unavailable makes Available return false.
	Unavailable bool

	// ShowErr, when set, makes Show fail.
	ShowErr error

	shownURLs []string
	hideCount int
	events    chan ui.OverlayEvent
}

// NewScriptedOverlay creates an available overlay.
func NewScriptedOverlay() *ScriptedOverlay {
	return &ScriptedOverlay{events: make(chan ui.OverlayEvent, 1)}
}

func (o *ScriptedOverlay) Available() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.Unavailable
}

func (o *ScriptedOverlay) Show(url string) (<-chan ui.OverlayEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ShowErr != nil {
		return nil, o.ShowErr
	}
	o.shownURLs = append(o.shownURLs, url)
	return o.events, nil
}

func (o *ScriptedOverlay) Hide() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hideCount++
}

// ShownURLs returns the URLs the overlay was asked to show.
func (o *ScriptedOverlay) ShownURLs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.shownURLs))
	copy(out, o.shownURLs)
	return out
}

// HideCount returns how many times Hide was called.
func (o *ScriptedOverlay) HideCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hideCount
}

// Emit sends a terminal event to the overlay's event channel.
func (o *ScriptedOverlay) Emit(ev ui.OverlayEvent) {
	o.events <- ev
	close(o.events)
}

// ============================================================================
// Browser opener
// ============================================================================

// FakeOpener records the URLs a flow asked to open in a browser.
type FakeOpener struct {
	mu   sync.Mutex
	Err  error
	urls []string
}

func (o *FakeOpener) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.urls = append(o.urls, url)
	return nil
}

// OpenedURLs returns the URLs opened so far.
func (o *FakeOpener) OpenedURLs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.urls))
	copy(out, o.urls)
	return out
}
