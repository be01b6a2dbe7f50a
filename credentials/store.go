// Package credentials provides keyring-based persistence for the signed-in
// player identity. One record is stored per game id; the record is read
// lazily on first access and cached for the rest of the run.
package credentials

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/byteness/keyring"

	"github.com/byteness/playauth/errors"
)

// Credential is the identity obtained from the provider.
// Token is only ever set together with UserID; Username may be empty.
type Credential struct {
	UserID   string
	Username string
	Token    string
}

// storedRecord is the persisted JSON shape. Field names are part of the
// record format shared with the provider's web flow and must not change.
type storedRecord struct {
	Username  string `json:"username"`
	UserID    string `json:"userId"`
	UserToken string `json:"userToken"`
}

// StorageKey derives the keyring key for a game's credential record.
func StorageKey(gameID string) string {
	return gameID + "_authenticatedUser"
}

// Store caches and persists the credential for a single game.
// It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	keyring keyring.Keyring
	gameID  string

	checked      bool
	cred         Credential
	justLoggedIn bool
}

// NewStore creates a Store persisting to the given keyring under the
// given game id.
func NewStore(kr keyring.Keyring, gameID string) *Store {
	return &Store{keyring: kr, gameID: gameID}
}

// IsAuthenticated reports whether a token is stored for the game.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	return s.cred.Token != ""
}

// Username returns the stored username, or empty if absent.
func (s *Store) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	return s.cred.Username
}

// UserID returns the stored user id, or empty if absent.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	return s.cred.UserID
}

// Token returns the stored token, or empty if absent.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	return s.cred.Token
}

// Current returns the stored credential and whether one is present.
func (s *Store) Current() (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	return s.cred, s.cred.Token != ""
}

// JustLoggedIn reports whether a login happened since the flag was last
// consumed. Useful for the embedding application to react once to a login.
func (s *Store) JustLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.justLoggedIn
}

// ConsumeJustLoggedIn returns the just-logged-in flag and resets it.
func (s *Store) ConsumeJustLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.justLoggedIn
	s.justLoggedIn = false
	return v
}

// Save overwrites the cached credential and persists it. The in-memory
// state is updated even when persistence fails: the login remains valid
// for the current run, it just will not survive a restart. A persistence
// failure is logged and returned as a STORAGE_WRITE_FAILED error so the
// caller can surface it if it wants to.
func (s *Store) Save(cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred.Username == "" {
		log.Printf("The authenticated player does not have a username")
	}
	s.cred = cred
	s.checked = true
	s.justLoggedIn = true

	data, err := json.Marshal(storedRecord{
		Username:  cred.Username,
		UserID:    cred.UserID,
		UserToken: cred.Token,
	})
	if err != nil {
		return errors.New(errors.ErrCodeStorageWriteFailed,
			fmt.Sprintf("encoding credential record: %v", err),
			errors.GetSuggestion(errors.ErrCodeStorageWriteFailed), err)
	}

	item := keyring.Item{
		Key:         StorageKey(s.gameID),
		Data:        data,
		Label:       fmt.Sprintf("playauth (%s)", s.gameID),
		Description: "playauth credential",

		// macOS Keychain: keep the item out of iCloud sync and do not
		// widen the ACL beyond this application.
		KeychainNotTrustApplication: true,
		KeychainNotSynchronizable:   true,
	}
	if err := s.keyring.Set(item); err != nil {
		log.Printf("Unable to persist the credential record: %s", err)
		return errors.New(errors.ErrCodeStorageWriteFailed,
			fmt.Sprintf("persisting credential record: %v", err),
			errors.GetSuggestion(errors.ErrCodeStorageWriteFailed), err)
	}
	return nil
}

// Clear removes the cached and persisted credential. Removing a record
// that does not exist is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred = Credential{}
	s.justLoggedIn = false
	s.checked = true

	err := s.keyring.Remove(StorageKey(s.gameID))
	if err != nil && err != keyring.ErrKeyNotFound {
		return errors.New(errors.ErrCodeStorageWriteFailed,
			fmt.Sprintf("removing credential record: %v", err),
			errors.GetSuggestion(errors.ErrCodeStorageWriteFailed), err)
	}
	return nil
}

// Reload discards the cache and re-reads the persisted record.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked = false
	s.cred = Credential{}
	return s.load()
}

// ensureLoaded performs the one-time lazy read. A failed read still marks
// the store as checked so accessors do not hammer a broken backend; use
// Reload to retry explicitly. Callers must hold s.mu.
func (s *Store) ensureLoaded() {
	if s.checked {
		return
	}
	if err := s.load(); err != nil {
		log.Printf("Unable to read the credential record, player authentication will not be available: %s", err)
	}
}

// load reads and decodes the persisted record. Callers must hold s.mu.
func (s *Store) load() error {
	s.checked = true

	item, err := s.keyring.Get(StorageKey(s.gameID))
	if err == keyring.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return errors.New(errors.ErrCodeStorageReadFailed,
			fmt.Sprintf("reading credential record: %v", err),
			errors.GetSuggestion(errors.ErrCodeStorageReadFailed), err)
	}

	var record storedRecord
	if err := json.Unmarshal(item.Data, &record); err != nil {
		return errors.New(errors.ErrCodeStorageReadFailed,
			fmt.Sprintf("decoding credential record: %v", err),
			errors.GetSuggestion(errors.ErrCodeStorageReadFailed), err)
	}

	s.cred = Credential{
		UserID:   record.UserID,
		Username: record.Username,
		Token:    record.UserToken,
	}
	return nil
}
