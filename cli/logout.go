package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/byteness/keyring"

	"github.com/byteness/playauth/credentials"
	"github.com/byteness/playauth/session"
	"github.com/byteness/playauth/ui"
)

// LogoutCommandInput contains the input for the logout command.
type LogoutCommandInput struct {
	GameName string
	GameID   string

	// Keyring is an optional keyring for testing.
	Keyring keyring.Keyring

	// Stdout is an optional writer for output (for testing).
	Stdout io.Writer

	// Stderr is an optional writer for errors (for testing).
	Stderr io.Writer
}

// ConfigureLogoutCommand sets up the logout command as a top-level command.
func ConfigureLogoutCommand(app *kingpin.Application, p *PlayAuth) {
	input := LogoutCommandInput{}

	cmd := app.Command("logout", "Log the player out and remove the stored credential")

	cmd.Flag("game", "Name of the configured game section").
		Envar("PLAYAUTH_GAME").
		StringVar(&input.GameName)

	cmd.Flag("game-id", "Game id to log out from, bypassing the config file").
		StringVar(&input.GameID)

	cmd.Action(func(c *kingpin.ParseContext) error {
		err := LogoutCommand(input, p)
		app.FatalIfError(err, "logout")
		return nil
	})
}

// LogoutCommand executes the logout command logic.
func LogoutCommand(input LogoutCommandInput, p *PlayAuth) error {
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
	if game.GameID == "" {
		return fmt.Errorf("no game id configured")
	}

	kr := input.Keyring
	if kr == nil {
		kr, err = p.Keyring()
		if err != nil {
			return err
		}
	}
	store := credentials.NewStore(kr, game.GameID)

	if !store.IsAuthenticated() {
		fmt.Fprintln(stdout, "Not logged in.")
		return nil
	}

	controller := &session.Controller{
		GameID:  game.GameID,
		Store:   store,
		Surface: &ui.TerminalSurface{Writer: stderr, Styled: isATerminal()},
	}
	return controller.Logout()
}
