package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/byteness/keyring"

	"github.com/byteness/playauth/channel"
	"github.com/byteness/playauth/config"
	"github.com/byteness/playauth/credentials"
	autherrors "github.com/byteness/playauth/errors"
	"github.com/byteness/playauth/platform"
	"github.com/byteness/playauth/provider"
	"github.com/byteness/playauth/session"
	"github.com/byteness/playauth/ui"
)

// LoginCommandInput contains the input for the login command.
type LoginCommandInput struct {
	GameName          string
	GameID            string
	Dev               bool
	DisableGuestLogin bool
	Timeout           time.Duration

	// UseStdout prints the login URL instead of opening a browser.
	UseStdout bool

	// Keyring is an optional keyring for testing.
	// If nil, the global keyring configuration is used.
	Keyring keyring.Keyring

	// Surface is an optional UI surface for testing.
	// If nil, a terminal surface on stderr is used.
	Surface ui.Surface

	// Opener is an optional browser opener for testing.
	Opener channel.Opener

	// Endpoints is an optional endpoint override for testing.
	Endpoints *provider.Endpoints

	// Stdout is an optional writer for output (for testing).
	// If nil, os.Stdout will be used.
	Stdout io.Writer

	// Stderr is an optional writer for errors (for testing).
	// If nil, os.Stderr will be used.
	Stderr io.Writer
}

// ConfigureLoginCommand sets up the login command as a top-level command.
func ConfigureLoginCommand(app *kingpin.Application, p *PlayAuth) {
	input := LoginCommandInput{}

	cmd := app.Command("login", "Log the player in and store the credential in the keyring")

	cmd.Flag("game", "Name of the configured game section").
		Envar("PLAYAUTH_GAME").
		StringVar(&input.GameName)

	cmd.Flag("game-id", "Game id to authenticate against, bypassing the config file").
		StringVar(&input.GameID)

	cmd.Flag("dev", "Use the provider's development environment").
		BoolVar(&input.Dev)

	cmd.Flag("disable-guest-login", "Hide the provider's guest login option").
		BoolVar(&input.DisableGuestLogin)

	cmd.Flag("timeout", "Give up on the login attempt after this long").
		Default("15m").
		DurationVar(&input.Timeout)

	cmd.Flag("stdout", "Print the login URL instead of opening a browser").
		BoolVar(&input.UseStdout)

	cmd.Action(func(c *kingpin.ParseContext) error {
		err := LoginCommand(context.Background(), input, p)
		app.FatalIfError(err, "login")
		return nil
	})
}

// stdoutOpener prints the login URL instead of opening a browser, for
// remote shells and scripted use.
type stdoutOpener struct {
	w io.Writer
}

func (o stdoutOpener) Open(url string) error {
	fmt.Fprintln(o.w, url)
	return nil
}

// LoginCommand executes the login command logic: it resolves the game,
// runs the socket-based login flow and persists the credential.
func LoginCommand(ctx context.Context, input LoginCommandInput, p *PlayAuth) error {
	stdout := input.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := input.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	game, err := resolveGame(input.GameName, input.GameID, p)
	if err != nil {
		return FormatErrorWithSuggestionTo(stderr, err)
	}
	if input.Dev {
		game.Dev = true
	}
	if input.DisableGuestLogin {
		game.DisableGuestLogin = true
	}
	if game.GameID == "" {
		return FormatErrorWithSuggestionTo(stderr, autherrors.New(
			autherrors.ErrCodeConfigMissingGameID,
			"no game id configured",
			autherrors.GetSuggestion(autherrors.ErrCodeConfigMissingGameID), nil))
	}

	endpoints := game.Endpoints()
	if input.Endpoints != nil {
		endpoints = *input.Endpoints
	}

	kr := input.Keyring
	if kr == nil {
		kr, err = p.Keyring()
		if err != nil {
			return err
		}
	}
	store := credentials.NewStore(kr, game.GameID)

	if store.IsAuthenticated() {
		fmt.Fprintf(stdout, "Already logged in as %s. Run `playauth logout` to switch accounts.\n", store.Username())
		return nil
	}

	surface := input.Surface
	if surface == nil {
		surface = &ui.TerminalSurface{Writer: stderr, Styled: isATerminal()}
	}
	opener := input.Opener
	if opener == nil && input.UseStdout {
		opener = stdoutOpener{w: stdout}
	}

	controller := &session.Controller{
		GameID:    game.GameID,
		Platform:  platform.DesktopShell,
		Endpoints: endpoints,
		Store:     store,
		Surface:   surface,
		Opener:    opener,
		Timeout:   input.Timeout,
	}

	switch controller.Open(ctx, session.OpenOptions{DisableGuestLogin: game.DisableGuestLogin}) {
	case channel.OutcomeLogged:
		return nil
	case channel.OutcomeDismissed:
		fmt.Fprintln(stdout, "Login cancelled.")
		return nil
	}
	return fmt.Errorf("authentication failed")
}

// resolveGame resolves the target game from the flags and the config
// file, asking interactively when several games are configured.
func resolveGame(gameName, gameID string, p *PlayAuth) (config.GameConfig, error) {
	if gameID != "" {
		return config.GameConfig{GameID: gameID}.WithEnvOverrides(), nil
	}

	name := gameName
	if name == "" {
		cfg, err := p.ConfigFile()
		if err != nil {
			return config.GameConfig{}, err
		}
		names := cfg.GameNames()
		switch {
		case len(names) == 1:
			name = names[0]
		case len(names) > 1 && isATerminal():
			name, err = pickGame(names)
			if err != nil {
				return config.GameConfig{}, err
			}
		}
	}
	return p.ResolveGame(name)
}
