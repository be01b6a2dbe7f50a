package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/byteness/keyring"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	isatty "github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/byteness/playauth/config"
	autherrors "github.com/byteness/playauth/errors"
)

var keyringConfigDefaults = keyring.Config{
	ServiceName:             "playauth",
	FilePasswordFunc:        fileKeyringPassphrasePrompt,
	LibSecretCollectionName: "playauth",
	KWalletAppID:            "playauth",
	KWalletFolder:           "playauth",
	WinCredPrefix:           "playauth",

	// macOS Keychain security hardening:
	// - TrustApplication: allows this app to access items it created without prompting
	// - AccessibleWhenUnlocked: false = credentials unavailable when device locked
	// - Synchronizable: false = prevent credential sync to iCloud
	KeychainTrustApplication:       true,
	KeychainAccessibleWhenUnlocked: false,
	KeychainSynchronizable:         false,

	// Linux kernel keyring security:
	// - KeyCtlScope: "user" = keys visible only to current user's keyring
	// - KeyCtlPerm: possessor-only permissions
	KeyCtlScope: "user",
	KeyCtlPerm:  0x3f000000,
}

// PlayAuth carries the global CLI state: keyring configuration and the
// lazily loaded configuration file.
type PlayAuth struct {
	Debug          bool
	KeyringConfig  keyring.Config
	KeyringBackend string

	keyringImpl keyring.Keyring
	configFile  *config.ConfigFile
}

func isATerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *PlayAuth) Keyring() (keyring.Keyring, error) {
	if p.keyringImpl == nil {
		if p.KeyringBackend != "" {
			p.KeyringConfig.AllowedBackends = []keyring.BackendType{keyring.BackendType(p.KeyringBackend)}
		}
		var err error
		p.keyringImpl, err = keyring.Open(p.KeyringConfig)
		if err != nil {
			return nil, err
		}
	}
	return p.keyringImpl, nil
}

func (p *PlayAuth) ConfigFile() (*config.ConfigFile, error) {
	if p.configFile == nil {
		path, err := config.ConfigPath()
		if err != nil {
			return nil, err
		}
		p.configFile, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}
	return p.configFile, nil
}

func (p *PlayAuth) MustGetGameNames() []string {
	cfg, err := p.ConfigFile()
	if err != nil {
		log.Fatalf("Error loading config: %s", err.Error())
	}
	return cfg.GameNames()
}

// ResolveGame returns the configuration for a named game, or the
// default section when name is empty, with environment overrides
// applied on top.
func (p *PlayAuth) ResolveGame(name string) (config.GameConfig, error) {
	cfg, err := p.ConfigFile()
	if err != nil {
		return config.GameConfig{}, err
	}
	if name == "" {
		return cfg.DefaultGame().WithEnvOverrides(), nil
	}
	g, ok := cfg.Game(name)
	if !ok {
		return config.GameConfig{}, autherrors.WithContext(autherrors.New(
			autherrors.ErrCodeConfigGameNotFound,
			fmt.Sprintf("game %q not found in %s", name, cfg.Path),
			autherrors.GetSuggestion(autherrors.ErrCodeConfigGameNotFound), nil),
			"config", cfg.Path)
	}
	return g.WithEnvOverrides(), nil
}

func ConfigureGlobals(app *kingpin.Application) *PlayAuth {
	p := &PlayAuth{
		KeyringConfig: keyringConfigDefaults,
	}

	backendsAvailable := []string{}
	for _, backendType := range keyring.AvailableBackends() {
		backendsAvailable = append(backendsAvailable, string(backendType))
	}

	app.Flag("debug", "Show debugging output").
		BoolVar(&p.Debug)

	app.Flag("backend", fmt.Sprintf("Secret backend to use %v", backendsAvailable)).
		Default(backendsAvailable[0]).
		Envar("PLAYAUTH_BACKEND").
		EnumVar(&p.KeyringBackend, backendsAvailable...)

	app.Flag("keychain", "Name of macOS keychain to use, if it doesn't exist it will be created").
		Default("playauth").
		Envar("PLAYAUTH_KEYCHAIN_NAME").
		StringVar(&p.KeyringConfig.KeychainName)

	app.Flag("secret-service-collection", "Name of secret-service collection to use, if it doesn't exist it will be created").
		Default("playauth").
		Envar("PLAYAUTH_SECRET_SERVICE_COLLECTION_NAME").
		StringVar(&p.KeyringConfig.LibSecretCollectionName)

	app.Flag("pass-dir", "Pass password store directory").
		Envar("PLAYAUTH_PASS_PASSWORD_STORE_DIR").
		StringVar(&p.KeyringConfig.PassDir)

	app.Flag("pass-cmd", "Name of the pass executable").
		Envar("PLAYAUTH_PASS_CMD").
		StringVar(&p.KeyringConfig.PassCmd)

	app.Flag("pass-prefix", "Prefix to prepend to the item path stored in pass").
		Envar("PLAYAUTH_PASS_PREFIX").
		StringVar(&p.KeyringConfig.PassPrefix)

	app.Flag("file-dir", "Directory for the \"file\" password store").
		Default("~/.playauth/keys/").
		Envar("PLAYAUTH_FILE_DIR").
		StringVar(&p.KeyringConfig.FileDir)

	app.PreAction(func(c *kingpin.ParseContext) error {
		if !p.Debug {
			log.SetOutput(io.Discard)
		}
		keyring.Debug = p.Debug

		log.Printf("playauth %s", app.Model().Version)
		return nil
	})

	return p
}

func fileKeyringPassphrasePrompt(prompt string) (string, error) {
	if password, ok := os.LookupEnv("PLAYAUTH_FILE_PASSPHRASE"); ok {
		return password, nil
	}

	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	fmt.Println()
	return string(b), nil
}

// pickGame asks the user to choose a game from the configured sections.
func pickGame(games []string) (string, error) {
	var gameName string

	var opts []huh.Option[string]
	for _, g := range games {
		opts = append(opts, huh.NewOption(g, g))
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Choose game:").
				Options(opts...).
				Value(&gameName))).WithHeight(9)

	err := form.Run()
	blue := lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	white := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	fmt.Printf("%s %s\n", white.Render("Selected game:"), blue.Render(gameName))

	return gameName, err
}
