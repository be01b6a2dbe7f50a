package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/byteness/keyring"

	"github.com/byteness/playauth/channel"
	"github.com/byteness/playauth/credentials"
	autherrors "github.com/byteness/playauth/errors"
	"github.com/byteness/playauth/logging"
	"github.com/byteness/playauth/message"
	"github.com/byteness/playauth/platform"
	"github.com/byteness/playauth/provider"
	"github.com/byteness/playauth/testutil"
)

// captureLogger records flow entries for assertions.
type captureLogger struct {
	mu      sync.Mutex
	entries []logging.FlowLogEntry
}

func (l *captureLogger) LogFlow(entry logging.FlowLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *captureLogger) Entries() []logging.FlowLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logging.FlowLogEntry(nil), l.entries...)
}

// newRegistrationServer serves the public-game probe with a fixed status.
func newRegistrationServer(t *testing.T, status int) provider.Endpoints {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	e := provider.DefaultEndpoints(false)
	e.APIBaseURL = server.URL
	return e
}

func newTestController(t *testing.T, bus *testutil.FakeBus, surface *testutil.RecordingSurface, registrationStatus int) *Controller {
	t.Helper()
	return &Controller{
		GameID:    "game-123",
		Platform:  platform.StandaloneWeb,
		Endpoints: newRegistrationServer(t, registrationStatus),
		Store:     credentials.NewStore(keyring.NewArrayKeyring(nil), "game-123"),
		Bus:       bus,
		Surface:   surface,
		Opener:    &testutil.FakeOpener{},
	}
}

func loginResult() message.Message {
	return message.Message{
		Origin: "https://gd.games",
		ID:     message.IDAuthenticationResult,
		Body:   &message.AuthPayload{UserID: "u1", Username: "bob", Token: "t1"},
	}
}

func openAsync(ctx context.Context, c *Controller, opts OpenOptions) <-chan channel.Outcome {
	out := make(chan channel.Outcome, 1)
	go func() { out <- c.Open(ctx, opts) }()
	return out
}

func waitOutcome(t *testing.T, out <-chan channel.Outcome) channel.Outcome {
	t.Helper()
	select {
	case o := <-out:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("attempt did not resolve in time")
		return ""
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestController_OpenLogged(t *testing.T) {
	bus := testutil.NewFakeBus()
	surface := &testutil.RecordingSurface{}
	c := newTestController(t, bus, surface, http.StatusOK)

	out := openAsync(context.Background(), c, OpenOptions{})
	waitFor(t, func() bool { return bus.SubscriberCount() == 1 })
	bus.Deliver(loginResult())

	if got := waitOutcome(t, out); got != channel.OutcomeLogged {
		t.Fatalf("outcome = %q, want logged", got)
	}

	if !c.Store.IsAuthenticated() {
		t.Error("credential was not persisted")
	}
	if got := c.Store.Username(); got != "bob" {
		t.Errorf("stored username = %q, want bob", got)
	}

	if surface.BannerHidden != 1 {
		t.Errorf("banner hidden %d times, want 1", surface.BannerHidden)
	}
	if surface.BannerRemoved != 1 {
		t.Errorf("banner removed %d times, want 1", surface.BannerRemoved)
	}
	if len(surface.LoggedIn) != 1 || surface.LoggedIn[0] != "bob" {
		t.Errorf("logged-in notifications = %v, want [bob]", surface.LoggedIn)
	}
	if surface.FocusCount != 1 {
		t.Errorf("focus count = %d, want 1", surface.FocusCount)
	}
	if container := surface.LastContainer(); container == nil || !container.Closed() {
		t.Error("waiting container was not closed")
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("dangling bus subscriptions = %d, want 0", bus.SubscriberCount())
	}
	if got := c.State(); got != StateIdle {
		t.Errorf("state after attempt = %q, want idle", got)
	}
	if c.IsOpen() {
		t.Error("IsOpen = true after the attempt ended")
	}
}

func TestController_MissingGameID(t *testing.T) {
	surface := &testutil.RecordingSurface{}
	c := newTestController(t, testutil.NewFakeBus(), surface, http.StatusOK)
	c.GameID = ""

	if got := c.Open(context.Background(), OpenOptions{}); got != channel.OutcomeErrored {
		t.Errorf("outcome = %q, want errored", got)
	}
	if surface.ErrorCount != 1 {
		t.Errorf("error notifications = %d, want 1", surface.ErrorCount)
	}
	if len(surface.Containers) != 0 {
		t.Errorf("containers opened = %d, want 0", len(surface.Containers))
	}
}

func TestController_SurfaceWithoutMount(t *testing.T) {
	surface := &testutil.RecordingSurface{OpenErr: context.DeadlineExceeded}
	c := newTestController(t, testutil.NewFakeBus(), surface, http.StatusOK)

	if got := c.Open(context.Background(), OpenOptions{}); got != channel.OutcomeErrored {
		t.Errorf("outcome = %q, want errored", got)
	}
	if surface.ErrorCount != 1 {
		t.Errorf("error notifications = %d, want 1", surface.ErrorCount)
	}
}

func TestController_GameNotRegistered(t *testing.T) {
	surface := &testutil.RecordingSurface{}
	c := newTestController(t, testutil.NewFakeBus(), surface, http.StatusNotFound)
	logger := &captureLogger{}
	c.Logger = logger

	if got := c.Open(context.Background(), OpenOptions{}); got != channel.OutcomeErrored {
		t.Errorf("outcome = %q, want errored", got)
	}

	container := surface.LastContainer()
	if container == nil {
		t.Fatal("no container was opened")
	}
	calls := container.StatusCalls()
	if len(calls) != 1 || calls[0].Registered {
		t.Errorf("status calls = %v, want one unregistered", calls)
	}
	if !container.Closed() {
		t.Error("container left open after a failed registration check")
	}
	if surface.ErrorCount != 1 {
		t.Errorf("error notifications = %d, want 1", surface.ErrorCount)
	}
	entries := logger.Entries()
	if len(entries) != 1 || entries[0].Error != autherrors.ErrCodeGameNotRegistered {
		t.Errorf("flow log = %+v, want one entry with error %s", entries, autherrors.ErrCodeGameNotRegistered)
	}
}

func TestController_RegistrationReported(t *testing.T) {
	bus := testutil.NewFakeBus()
	surface := &testutil.RecordingSurface{}
	c := newTestController(t, bus, surface, http.StatusOK)

	out := openAsync(context.Background(), c, OpenOptions{})
	waitFor(t, func() bool { return bus.SubscriberCount() == 1 })

	container := surface.LastContainer()
	calls := container.StatusCalls()
	if len(calls) != 1 || !calls[0].Registered || calls[0].Platform != platform.StandaloneWeb.String() {
		t.Errorf("status calls = %v, want one registered on %s", calls, platform.StandaloneWeb)
	}

	bus.Deliver(loginResult())
	waitOutcome(t, out)
}

func TestController_UserDismiss(t *testing.T) {
	bus := testutil.NewFakeBus()
	surface := &testutil.RecordingSurface{}
	c := newTestController(t, bus, surface, http.StatusOK)

	out := openAsync(context.Background(), c, OpenOptions{})
	waitFor(t, func() bool { return bus.SubscriberCount() == 1 })
	surface.DismissContainer()

	if got := waitOutcome(t, out); got != channel.OutcomeDismissed {
		t.Fatalf("outcome = %q, want dismissed", got)
	}

	// The passive banner comes back after a dismissal.
	if len(surface.Banners) != 1 || surface.Banners[0].Authenticated {
		t.Errorf("banners = %v, want one unauthenticated", surface.Banners)
	}
	if surface.ErrorCount != 0 {
		t.Errorf("error notifications = %d, want 0", surface.ErrorCount)
	}
	if surface.FocusCount != 1 {
		t.Errorf("focus count = %d, want 1", surface.FocusCount)
	}
}

func TestController_Timeout(t *testing.T) {
	bus := testutil.NewFakeBus()
	surface := &testutil.RecordingSurface{}
	c := newTestController(t, bus, surface, http.StatusOK)
	c.Timeout = 30 * time.Millisecond

	out := openAsync(context.Background(), c, OpenOptions{})

	if got := waitOutcome(t, out); got != channel.OutcomeErrored {
		t.Fatalf("outcome = %q, want errored", got)
	}

	// Timeouts clean up silently: focus comes back, nothing is shown.
	if surface.ErrorCount != 0 {
		t.Errorf("error notifications = %d, want 0", surface.ErrorCount)
	}
	if len(surface.Banners) != 0 {
		t.Errorf("banners = %v, want none", surface.Banners)
	}
	if surface.FocusCount != 1 {
		t.Errorf("focus count = %d, want 1", surface.FocusCount)
	}
	if container := surface.LastContainer(); container == nil || !container.Closed() {
		t.Error("waiting container was not closed")
	}
	if bus.SubscriberCount() != 0 {
		t.Errorf("dangling bus subscriptions = %d, want 0", bus.SubscriberCount())
	}
}

func TestController_NoDanglingResourcesAfterRepeatedAttempts(t *testing.T) {
	bus := testutil.NewFakeBus()
	surface := &testutil.RecordingSurface{}
	c := newTestController(t, bus, surface, http.StatusOK)

	for i := 0; i < 5; i++ {
		out := openAsync(context.Background(), c, OpenOptions{})
		waitFor(t, func() bool { return bus.SubscriberCount() == 1 })
		surface.DismissContainer()
		if got := waitOutcome(t, out); got != channel.OutcomeDismissed {
			t.Fatalf("attempt %d outcome = %q, want dismissed", i, got)
		}
	}

	if bus.SubscriberCount() != 0 {
		t.Errorf("dangling bus subscriptions = %d, want 0", bus.SubscriberCount())
	}
	for i, container := range surface.Containers {
		if !container.Closed() {
			t.Errorf("container %d left open", i)
		}
	}
	if c.IsOpen() {
		t.Error("IsOpen = true after all attempts ended")
	}
}

func TestController_OpenPreemptsPreviousAttempt(t *testing.T) {
	bus := testutil.NewFakeBus()
	surface := &testutil.RecordingSurface{}
	c := newTestController(t, bus, surface, http.StatusOK)

	first := openAsync(context.Background(), c, OpenOptions{})
	waitFor(t, func() bool { return bus.SubscriberCount() == 1 })

	second := openAsync(context.Background(), c, OpenOptions{})

	if got := waitOutcome(t, first); got != channel.OutcomeDismissed {
		t.Fatalf("first outcome = %q, want dismissed", got)
	}
	// A preempted attempt leaves the UI to its replacement.
	if len(surface.Banners) != 0 {
		t.Errorf("banners after preemption = %v, want none", surface.Banners)
	}

	waitFor(t, func() bool { return bus.SubscriberCount() == 1 })
	bus.Deliver(loginResult())

	if got := waitOutcome(t, second); got != channel.OutcomeLogged {
		t.Fatalf("second outcome = %q, want logged", got)
	}
}

func TestController_Logout(t *testing.T) {
	surface := &testutil.RecordingSurface{}
	c := newTestController(t, testutil.NewFakeBus(), surface, http.StatusOK)
	if err := c.Store.Save(credentials.Credential{UserID: "u1", Username: "bob", Token: "t1"}); err != nil {
		t.Fatal(err)
	}

	if err := c.Logout(); err != nil {
		t.Fatalf("Logout: %s", err)
	}
	if c.Store.IsAuthenticated() {
		t.Error("credential still present after logout")
	}
	if surface.BannerRemoved != 1 {
		t.Errorf("banner removed %d times, want 1", surface.BannerRemoved)
	}
	if surface.LoggedOut != 1 {
		t.Errorf("logged-out notifications = %d, want 1", surface.LoggedOut)
	}
}

func TestController_LogoutInterruptsAttempt(t *testing.T) {
	bus := testutil.NewFakeBus()
	surface := &testutil.RecordingSurface{}
	c := newTestController(t, bus, surface, http.StatusOK)

	out := openAsync(context.Background(), c, OpenOptions{})
	waitFor(t, func() bool { return bus.SubscriberCount() == 1 })

	if err := c.Logout(); err != nil {
		t.Fatalf("Logout: %s", err)
	}
	if got := waitOutcome(t, out); got != channel.OutcomeDismissed {
		t.Errorf("outcome = %q, want dismissed", got)
	}
	// Logout owns the UI: the attempt must not redisplay the banner.
	if len(surface.Banners) != 0 {
		t.Errorf("banners = %v, want none", surface.Banners)
	}
	if surface.LoggedOut != 1 {
		t.Errorf("logged-out notifications = %d, want 1", surface.LoggedOut)
	}
}

func TestController_OpenStopsAutomaticLogin(t *testing.T) {
	c := newTestController(t, testutil.NewFakeBus(), &testutil.RecordingSurface{}, http.StatusOK)
	c.GameID = "" // fail fast, the stop must still have happened

	stops := 0
	c.StopAutomaticLogin = func() { stops++ }

	c.Open(context.Background(), OpenOptions{})
	if stops != 1 {
		t.Errorf("automatic login stopped %d times, want 1", stops)
	}
}

func TestController_DisplayBanner(t *testing.T) {
	surface := &testutil.RecordingSurface{}
	c := newTestController(t, testutil.NewFakeBus(), surface, http.StatusOK)

	c.DisplayBanner()
	if len(surface.Banners) != 1 || surface.Banners[0].Authenticated {
		t.Fatalf("banners = %v, want one unauthenticated", surface.Banners)
	}

	if err := c.Store.Save(credentials.Credential{UserID: "u1", Username: "bob", Token: "t1"}); err != nil {
		t.Fatal(err)
	}
	c.DisplayBanner()
	last := surface.Banners[len(surface.Banners)-1]
	if !last.Authenticated || last.Username != "bob" {
		t.Errorf("banner = %+v, want authenticated as bob", last)
	}
}

func TestController_StrategySelection(t *testing.T) {
	c := newTestController(t, testutil.NewFakeBus(), &testutil.RecordingSurface{}, http.StatusOK)

	tests := []struct {
		platform platform.Platform
		want     string
	}{
		{platform.DesktopShell, "*channel.SocketStrategy"},
		{platform.NativeMobileSocket, "*channel.SocketStrategy"},
		{platform.WebIframe, "*channel.IframeStrategy"},
		{platform.HostedPlatformIframe, "*channel.HostedStrategy"},
		{platform.StandaloneWeb, "*channel.WindowStrategy"},
	}
	for _, tc := range tests {
		s := c.strategyFor(tc.platform, nil)
		switch tc.want {
		case "*channel.SocketStrategy":
			if _, ok := s.(*channel.SocketStrategy); !ok {
				t.Errorf("strategyFor(%s) = %T, want %s", tc.platform, s, tc.want)
			}
		case "*channel.IframeStrategy":
			if _, ok := s.(*channel.IframeStrategy); !ok {
				t.Errorf("strategyFor(%s) = %T, want %s", tc.platform, s, tc.want)
			}
		case "*channel.HostedStrategy":
			if _, ok := s.(*channel.HostedStrategy); !ok {
				t.Errorf("strategyFor(%s) = %T, want %s", tc.platform, s, tc.want)
			}
		case "*channel.WindowStrategy":
			if _, ok := s.(*channel.WindowStrategy); !ok {
				t.Errorf("strategyFor(%s) = %T, want %s", tc.platform, s, tc.want)
			}
		}
	}

	// An available overlay takes over the socket platforms when preferred.
	c.Overlay = testutil.NewScriptedOverlay()
	c.PreferOverlay = true
	for _, p := range []platform.Platform{platform.DesktopShell, platform.NativeMobileSocket} {
		s := c.strategyFor(p, nil)
		if _, ok := s.(*channel.OverlayStrategy); !ok {
			t.Errorf("strategyFor(%s) with overlay preferred = %T, want *channel.OverlayStrategy", p, s)
		}
	}
	s := c.strategyFor(platform.StandaloneWeb, nil)
	if _, ok := s.(*channel.WindowStrategy); !ok {
		t.Errorf("strategyFor(%s) with overlay preferred = %T, want *channel.WindowStrategy", platform.StandaloneWeb, s)
	}
}

func TestState_IsValid(t *testing.T) {
	for _, s := range []State{StateIdle, StateOpening, StateWaiting, StateLogged, StateErrored, StateDismissed} {
		if !s.IsValid() {
			t.Errorf("IsValid(%q) = false, want true", s)
		}
	}
	if State("pending").IsValid() {
		t.Error("IsValid(pending) = true, want false")
	}
}
