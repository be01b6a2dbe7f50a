// Package config loads the playauth configuration file: an ini file
// with a [default] section and one [game <name>] section per game.
// Game sections inherit unset keys from [default].
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/byteness/playauth/provider"
)

const (
	// ConfigFileEnv overrides the configuration file location.
	ConfigFileEnv = "PLAYAUTH_CONFIG_FILE"

	// Recognized section keys.
	keyGameID            = "game_id"
	keyBaseURL           = "base_url"
	keyAPIBaseURL        = "api_base_url"
	keySocketBaseURL     = "ws_base_url"
	keyDev               = "dev"
	keyDisableGuestLogin = "disable_guest_login"

	gameSectionPrefix = "game "
)

// Environment overrides applied on top of the file.
const (
	EnvGameID            = "PLAYAUTH_GAME_ID"
	EnvDev               = "PLAYAUTH_DEV"
	EnvDisableGuestLogin = "PLAYAUTH_DISABLE_GUEST_LOGIN"
)

// GameConfig is the resolved configuration of one game.
type GameConfig struct {
	// Name is the section name; empty for the default section.
	Name string

	// GameID identifies the game with the provider.
	GameID string

	// BaseURL, APIBaseURL and SocketBaseURL override the provider
	// endpoint roots when set.
	BaseURL       string
	APIBaseURL    string
	SocketBaseURL string

	// Dev selects the provider's development environment.
	Dev bool

	// DisableGuestLogin hides the provider's guest login option.
	DisableGuestLogin bool
}

// Endpoints resolves the provider endpoints for this game, applying
// any per-game URL overrides on top of the environment defaults.
func (g GameConfig) Endpoints() provider.Endpoints {
	e := provider.DefaultEndpoints(g.Dev)
	if g.BaseURL != "" {
		e.BaseURL = g.BaseURL
	}
	if g.APIBaseURL != "" {
		e.APIBaseURL = g.APIBaseURL
	}
	if g.SocketBaseURL != "" {
		e.SocketBaseURL = g.SocketBaseURL
	}
	return e
}

// WithEnvOverrides returns a copy with PLAYAUTH_* environment
// variables applied on top.
func (g GameConfig) WithEnvOverrides() GameConfig {
	if v := os.Getenv(EnvGameID); v != "" {
		g.GameID = v
	}
	if v := os.Getenv(EnvDev); v != "" {
		g.Dev = isTruthy(v)
	}
	if v := os.Getenv(EnvDisableGuestLogin); v != "" {
		g.DisableGuestLogin = isTruthy(v)
	}
	return g
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// ConfigFile is a parsed configuration file.
type ConfigFile struct {
	// Path is the file the configuration was loaded from.
	Path string

	iniFile *ini.File
}

// ConfigPath returns the configuration file location: the
// PLAYAUTH_CONFIG_FILE override, or ~/.playauth/config.
func ConfigPath() (string, error) {
	if path := os.Getenv(ConfigFileEnv); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, ".playauth", "config"), nil
}

// LoadConfig parses the configuration file at path. A missing file is
// not an error; it loads as an empty configuration.
func LoadConfig(path string) (*ConfigFile, error) {
	c := &ConfigFile{Path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		c.iniFile = ini.Empty()
		return c, nil
	}

	f, err := ini.LoadSources(ini.LoadOptions{
		AllowNestedValues:   true,
		InsensitiveSections: false,
		InsensitiveKeys:     true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	c.iniFile = f
	return c, nil
}

// GameNames returns the configured game section names, sorted.
func (c *ConfigFile) GameNames() []string {
	var names []string
	for _, section := range c.iniFile.Sections() {
		if name, ok := parseGameSection(section.Name()); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DefaultGame returns the configuration of the [default] section.
func (c *ConfigFile) DefaultGame() GameConfig {
	g := GameConfig{}
	applySection(&g, c.iniFile.Section(ini.DefaultSection))
	applySection(&g, c.iniFile.Section("default"))
	return g
}

// Game returns the resolved configuration of a named game section,
// with unset keys inherited from the default section. The second
// return is false when no such section exists.
func (c *ConfigFile) Game(name string) (GameConfig, bool) {
	section := c.lookupGameSection(name)
	if section == nil {
		return GameConfig{}, false
	}
	g := c.DefaultGame()
	g.Name = name
	applySection(&g, section)
	return g, true
}

func (c *ConfigFile) lookupGameSection(name string) *ini.Section {
	for _, section := range c.iniFile.Sections() {
		if n, ok := parseGameSection(section.Name()); ok && n == name {
			return section
		}
	}
	return nil
}

// parseGameSection extracts the game name from a section header,
// accepting both [game mygame] and [game "mygame"].
func parseGameSection(sectionName string) (string, bool) {
	if !strings.HasPrefix(sectionName, gameSectionPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(sectionName, gameSectionPrefix)
	name = strings.Trim(name, `"`)
	if name == "" {
		return "", false
	}
	return name, true
}

func applySection(g *GameConfig, section *ini.Section) {
	if section == nil {
		return
	}
	if section.HasKey(keyGameID) {
		g.GameID = section.Key(keyGameID).String()
	}
	if section.HasKey(keyBaseURL) {
		g.BaseURL = section.Key(keyBaseURL).String()
	}
	if section.HasKey(keyAPIBaseURL) {
		g.APIBaseURL = section.Key(keyAPIBaseURL).String()
	}
	if section.HasKey(keySocketBaseURL) {
		g.SocketBaseURL = section.Key(keySocketBaseURL).String()
	}
	if section.HasKey(keyDev) {
		g.Dev = section.Key(keyDev).MustBool(false)
	}
	if section.HasKey(keyDisableGuestLogin) {
		g.DisableGuestLogin = section.Key(keyDisableGuestLogin).MustBool(false)
	}
}
