package tokencache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record holds the token material cached for one account.
type Record struct {
	AccessToken  string    `json:"accessToken"`
	ExpiresOn    time.Time `json:"expiresOn"`
	RefreshToken string    `json:"refreshToken,omitempty"`
}

// Valid reports whether the record carries an access token that has not
// yet expired.
func (r Record) Valid() bool {
	return r.AccessToken != "" && r.ExpiresOn.After(time.Now())
}

// Store is a file-backed cache of token records keyed by account name.
// The whole cache is one JSON file that is read-modify-written on every
// mutation. There is no file locking: writes are driven by user-initiated
// logins and token refreshes, which are human-paced and effectively
// sequential per account, so last-writer-wins is an accepted limitation.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store persisting to the given file path. Parent
// directories are created on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the standard token cache location under the user
// cache directory.
func DefaultPath() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = "."
	}
	return filepath.Join(cacheDir, "outlookmcp", "tokens.json")
}

// Get returns the cached record for an account, if any.
func (s *Store) Get(account string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.read()
	rec, ok := cache[account]
	return rec, ok
}

// Put stores the record for an account, overwriting any previous entry.
func (s *Store) Put(account string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.read()
	cache[account] = rec
	return s.write(cache)
}

// Delete removes the cached record for an account. Deleting an absent
// entry is a no-op.
func (s *Store) Delete(account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.read()
	if _, ok := cache[account]; !ok {
		return nil
	}
	delete(cache, account)
	return s.write(cache)
}

// DeleteAll removes every cached record.
func (s *Store) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token cache: %w", err)
	}
	return nil
}

// read loads the cache file. A missing, unreadable or corrupt file is
// treated as an empty cache; a cached token is never worth failing over.
func (s *Store) read() map[string]Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("token cache unreadable, treating as empty",
				"path", s.path, "error", err)
		}
		return make(map[string]Record)
	}

	var cache map[string]Record
	if err := json.Unmarshal(data, &cache); err != nil {
		slog.Warn("token cache corrupt, treating as empty",
			"path", s.path, "error", err)
		return make(map[string]Record)
	}
	if cache == nil {
		cache = make(map[string]Record)
	}
	return cache
}

func (s *Store) write(cache map[string]Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token cache directory: %w", err)
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token cache: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}
