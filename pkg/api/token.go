package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

// tokenKey is the fixed name the bearer token is stored under.
// Presence or absence of this key is the sole authentication signal
// consulted at startup.
const tokenKey = "token"

// ErrNoToken is returned when no bearer token is stored.
var ErrNoToken = errors.New("not logged in")

// TokenStore persists the session's bearer token in a YAML file. It
// implements oauth2.TokenSource so the HTTP transport can pull the
// current token on every request.
type TokenStore struct {
	mu   sync.Mutex
	path string
}

// NewTokenStore creates a store backed by the file at path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Token implements oauth2.TokenSource.
func (ts *TokenStore) Token() (*oauth2.Token, error) {
	raw, err := ts.Load()
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}, nil
}

// Load returns the stored token, or "" when none is stored.
func (ts *TokenStore) Load() (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	data, err := os.ReadFile(ts.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}

	var entries map[string]string
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return "", fmt.Errorf("parse token file: %w", err)
	}
	return entries[tokenKey], nil
}

// Save writes the token, creating the parent directory as needed. The
// file is user-readable only.
func (ts *TokenStore) Save(token string) error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(ts.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	data, err := yaml.Marshal(map[string]string{tokenKey: token})
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}
	if err := os.WriteFile(ts.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an empty store is a no-op.
func (ts *TokenStore) Clear() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	err := os.Remove(ts.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
