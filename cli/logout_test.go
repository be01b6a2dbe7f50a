package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/byteness/keyring"

	"github.com/byteness/playauth/credentials"
)

func TestLogoutCommand(t *testing.T) {
	withConfigFile(t, "")
	kr := keyring.NewArrayKeyring(nil)
	store := credentials.NewStore(kr, "game-123")
	if err := store.Save(credentials.Credential{UserID: "u1", Username: "bob", Token: "t1"}); err != nil {
		t.Fatal(err)
	}

	input := LogoutCommandInput{
		GameID:  "game-123",
		Keyring: kr,
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
	}
	if err := LogoutCommand(input, &PlayAuth{KeyringConfig: keyringConfigDefaults}); err != nil {
		t.Fatalf("LogoutCommand: %s", err)
	}

	if credentials.NewStore(kr, "game-123").IsAuthenticated() {
		t.Error("credential still present after logout")
	}
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	withConfigFile(t, "")

	var stdout bytes.Buffer
	input := LogoutCommandInput{
		GameID:  "game-123",
		Keyring: keyring.NewArrayKeyring(nil),
		Stdout:  &stdout,
		Stderr:  &bytes.Buffer{},
	}
	if err := LogoutCommand(input, &PlayAuth{KeyringConfig: keyringConfigDefaults}); err != nil {
		t.Fatalf("LogoutCommand: %s", err)
	}
	if !strings.Contains(stdout.String(), "Not logged in") {
		t.Errorf("stdout = %q, want not-logged-in notice", stdout.String())
	}
}

func TestLogoutCommand_MissingGameID(t *testing.T) {
	withConfigFile(t, "")

	input := LogoutCommandInput{
		Keyring: keyring.NewArrayKeyring(nil),
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
	}
	if err := LogoutCommand(input, &PlayAuth{KeyringConfig: keyringConfigDefaults}); err == nil {
		t.Fatal("LogoutCommand succeeded without a game id")
	}
}
