// Package auth supplies the bearer credential attached to repository requests.
// The client never signs or verifies tokens; it only reads them and inspects
// their claims to report expiry.
package auth

import (
	"os"
	"strings"
	"sync"
)

// Provider returns the current bearer token. ok is false when the user is
// unauthenticated, which is not an error.
type Provider interface {
	Token() (token string, ok bool)
}

// Static holds a token set by a login flow. The zero value is unauthenticated.
type Static struct {
	mu    sync.RWMutex
	token string
}

// NewStatic returns a provider holding token.
func NewStatic(token string) *Static {
	return &Static{token: strings.TrimSpace(token)}
}

func (s *Static) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Set replaces the token. An empty token signs out.
func (s *Static) Set(token string) {
	s.mu.Lock()
	s.token = strings.TrimSpace(token)
	s.mu.Unlock()
}

// Env reads the token from an environment variable on every call.
type Env string

func (e Env) Token() (string, bool) {
	v := strings.TrimSpace(os.Getenv(string(e)))
	return v, v != ""
}

// None is a provider that is never authenticated.
var None Provider = Env("")
