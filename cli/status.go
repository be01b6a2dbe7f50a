package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/byteness/keyring"
	"github.com/charmbracelet/lipgloss"

	"github.com/byteness/playauth/credentials"
)

// StatusCommandInput contains the input for the status command.
type StatusCommandInput struct {
	GameName   string
	GameID     string
	JSONOutput bool

	// Keyring is an optional keyring for testing.
	Keyring keyring.Keyring

	// Stdout is an optional writer for output (for testing).
	Stdout io.Writer

	// Stderr is an optional writer for errors (for testing).
	Stderr io.Writer
}

// StatusResult represents the JSON output format for the status command.
type StatusResult struct {
	GameID        string `json:"game_id"`
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	UserID        string `json:"user_id,omitempty"`
}

// ConfigureStatusCommand sets up the status command as a top-level command.
func ConfigureStatusCommand(app *kingpin.Application, p *PlayAuth) {
	input := StatusCommandInput{}

	cmd := app.Command("status", "Show the stored credential for a game")

	cmd.Flag("game", "Name of the configured game section").
		Envar("PLAYAUTH_GAME").
		StringVar(&input.GameName)

	cmd.Flag("game-id", "Game id to inspect, bypassing the config file").
		StringVar(&input.GameID)

	cmd.Flag("json", "Output in JSON format").
		BoolVar(&input.JSONOutput)

	cmd.Action(func(c *kingpin.ParseContext) error {
		err := StatusCommand(input, p)
		app.FatalIfError(err, "status")
		return nil
	})
}

// StatusCommand executes the status command logic.
func StatusCommand(input StatusCommandInput, p *PlayAuth) error {
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

	result := StatusResult{
		GameID:        game.GameID,
		Authenticated: store.IsAuthenticated(),
		Username:      store.Username(),
		UserID:        store.UserID(),
	}

	if input.JSONOutput {
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(jsonBytes))
		return nil
	}

	label := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styled := isATerminal()
	render := func(s lipgloss.Style, text string) string {
		if styled {
			return s.Render(text)
		}
		return text
	}

	fmt.Fprintf(stdout, "%s %s\n", render(label, "Game:"), render(value, result.GameID))
	if result.Authenticated {
		fmt.Fprintf(stdout, "%s %s (%s)\n", render(label, "Logged in as:"), render(value, result.Username), result.UserID)
	} else {
		fmt.Fprintln(stdout, render(label, "Not logged in."))
	}
	return nil
}
