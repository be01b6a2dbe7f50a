package credentials

import (
	"encoding/json"
	"testing"

	"github.com/byteness/keyring"
	"github.com/google/go-cmp/cmp"

	"github.com/byteness/playauth/errors"
)

func TestStorageKey(t *testing.T) {
	if got := StorageKey("game-123"); got != "game-123_authenticatedUser" {
		t.Errorf("StorageKey() = %q, want %q", got, "game-123_authenticatedUser")
	}
}

func TestStore_EmptyKeyring(t *testing.T) {
	store := NewStore(keyring.NewArrayKeyring(nil), "game-123")

	if store.IsAuthenticated() {
		t.Error("IsAuthenticated() = true on empty keyring")
	}
	if got := store.Username(); got != "" {
		t.Errorf("Username() = %q, want empty", got)
	}
	if got := store.UserID(); got != "" {
		t.Errorf("UserID() = %q, want empty", got)
	}
	if got := store.Token(); got != "" {
		t.Errorf("Token() = %q, want empty", got)
	}
	if _, ok := store.Current(); ok {
		t.Error("Current() ok = true on empty keyring")
	}
}

func TestStore_SaveAndRead(t *testing.T) {
	kr := keyring.NewArrayKeyring(nil)
	store := NewStore(kr, "game-123")

	cred := Credential{UserID: "u1", Username: "bob", Token: "t1"}
	if err := store.Save(cred); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if !store.IsAuthenticated() {
		t.Error("IsAuthenticated() = false after Save")
	}
	got, ok := store.Current()
	if !ok {
		t.Fatal("Current() ok = false after Save")
	}
	if diff := cmp.Diff(cred, got); diff != "" {
		t.Errorf("Current() mismatch (-want +got):\n%s", diff)
	}

	// Persisted record uses the shared JSON shape.
	item, err := kr.Get("game-123_authenticatedUser")
	if err != nil {
		t.Fatalf("keyring.Get() error: %v", err)
	}
	var record map[string]string
	if err := json.Unmarshal(item.Data, &record); err != nil {
		t.Fatalf("persisted record is not JSON: %v", err)
	}
	want := map[string]string{"username": "bob", "userId": "u1", "userToken": "t1"}
	if diff := cmp.Diff(want, record); diff != "" {
		t.Errorf("persisted record mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_RoundTripAcrossRestart(t *testing.T) {
	kr := keyring.NewArrayKeyring(nil)

	first := NewStore(kr, "game-123")
	if err := first.Save(Credential{UserID: "u1", Username: "bob", Token: "t1"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	// A fresh store over the same keyring simulates a process restart.
	second := NewStore(kr, "game-123")
	if got := second.UserID(); got != "u1" {
		t.Errorf("UserID() = %q, want %q", got, "u1")
	}
	if got := second.Username(); got != "bob" {
		t.Errorf("Username() = %q, want %q", got, "bob")
	}
	if got := second.Token(); got != "t1" {
		t.Errorf("Token() = %q, want %q", got, "t1")
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := NewStore(keyring.NewArrayKeyring(nil), "game-123")

	store.Save(Credential{UserID: "u1", Username: "bob", Token: "t1"})
	store.Save(Credential{UserID: "u2", Username: "", Token: "t2"})

	got, _ := store.Current()
	want := Credential{UserID: "u2", Username: "", Token: "t2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Current() mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_Clear(t *testing.T) {
	kr := keyring.NewArrayKeyring(nil)
	store := NewStore(kr, "game-123")
	store.Save(Credential{UserID: "u1", Username: "bob", Token: "t1"})

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("IsAuthenticated() = true after Clear")
	}
	if _, err := kr.Get("game-123_authenticatedUser"); err != keyring.ErrKeyNotFound {
		t.Errorf("persisted record still present after Clear: %v", err)
	}

	// Clearing again is a no-op.
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear() error: %v", err)
	}
}

func TestStore_JustLoggedIn(t *testing.T) {
	store := NewStore(keyring.NewArrayKeyring(nil), "game-123")

	if store.JustLoggedIn() {
		t.Error("JustLoggedIn() = true before any login")
	}
	store.Save(Credential{UserID: "u1", Token: "t1"})
	if !store.JustLoggedIn() {
		t.Error("JustLoggedIn() = false after Save")
	}
	if !store.ConsumeJustLoggedIn() {
		t.Error("ConsumeJustLoggedIn() = false after Save")
	}
	if store.JustLoggedIn() {
		t.Error("JustLoggedIn() = true after consuming")
	}
}

func TestStore_CorruptRecord(t *testing.T) {
	kr := keyring.NewArrayKeyring([]keyring.Item{
		{Key: "game-123_authenticatedUser", Data: []byte("{not json")},
	})
	store := NewStore(kr, "game-123")

	// Accessors degrade to unauthenticated instead of failing.
	if store.IsAuthenticated() {
		t.Error("IsAuthenticated() = true with corrupt record")
	}

	// Reload surfaces the read error explicitly.
	err := store.Reload()
	if err == nil {
		t.Fatal("Reload() error = nil with corrupt record")
	}
	if got := errors.GetCode(err); got != errors.ErrCodeStorageReadFailed {
		t.Errorf("Reload() error code = %q, want %q", got, errors.ErrCodeStorageReadFailed)
	}
}

func TestStore_Reload(t *testing.T) {
	kr := keyring.NewArrayKeyring(nil)
	store := NewStore(kr, "game-123")

	// Cache the empty state.
	if store.IsAuthenticated() {
		t.Fatal("IsAuthenticated() = true on empty keyring")
	}

	// Another writer updates the backend; the cache does not see it.
	other := NewStore(kr, "game-123")
	other.Save(Credential{UserID: "u1", Token: "t1"})
	if store.IsAuthenticated() {
		t.Error("IsAuthenticated() = true before Reload, cache should be stale")
	}

	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if !store.IsAuthenticated() {
		t.Error("IsAuthenticated() = false after Reload")
	}
}

func TestStore_PerGameIsolation(t *testing.T) {
	kr := keyring.NewArrayKeyring(nil)
	a := NewStore(kr, "game-a")
	b := NewStore(kr, "game-b")

	a.Save(Credential{UserID: "u1", Token: "t1"})
	if b.IsAuthenticated() {
		t.Error("credential for game-a leaked into game-b")
	}
}
