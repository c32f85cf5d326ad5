package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Session holds the authenticated user's credentials for the current login.
// One instance is created at startup and injected into the API client; there
// is no process-global token state.
type Session struct {
	mu    sync.RWMutex
	path  string
	creds credentials
}

type credentials struct {
	Token   string    `json:"access_token"`
	Email   string    `json:"email,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// OpenSession loads persisted credentials from dir, if any. A missing
// credentials file yields an empty (unauthenticated) session.
func OpenSession(dir string) (*Session, error) {
	s := &Session{path: filepath.Join(dir, "credentials.json")}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if err := json.Unmarshal(data, &s.creds); err != nil {
		// A corrupt credentials file degrades to logged-out rather than
		// blocking every command.
		s.creds = credentials{}
	}
	return s, nil
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Token
}

// Email returns the email the session was established with, if recorded.
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Email
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Save persists a new token, replacing any previous credentials.
func (s *Session) Save(token, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = credentials{Token: token, Email: email, SavedAt: time.Now()}
	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear removes persisted credentials and empties the session.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = credentials{}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
