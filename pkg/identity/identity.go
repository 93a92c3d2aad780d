// Package identity supplies the operating mode and bearer tokens the client stores consult.
package identity

import (
	"errors"
	"sync"

	"golang.org/x/oauth2"
)

type Mode int

const (
	Guest Mode = iota
	Authenticated
)

func (m Mode) String() string {
	if m == Authenticated {
		return "authenticated"
	}
	return "guest"
}

var ErrNotLoggedIn = errors.New("not logged in")

// Identity is consulted by the record stores at every decision point.
type Identity interface {
	Mode() Mode
	// UserKey identifies the user for local storage namespacing. Empty for guests.
	UserKey() string
}

// Session is the process-wide identity of a client. It also acts as the token source
// of the remote clients, so logging out immediately stops authenticated calls.
type Session struct {
	mu      sync.RWMutex
	userKey string
	tokens  oauth2.TokenSource
}

func NewGuestSession() *Session {
	return &Session{}
}

func (s *Session) Login(userKey string, tokens oauth2.TokenSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userKey = userKey
	s.tokens = oauth2.ReuseTokenSource(nil, tokens)
}

// LoginWithToken logs in with a long-lived API token.
func (s *Session) LoginWithToken(userKey, token string) {
	s.Login(userKey, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
}

func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userKey = ""
	s.tokens = nil
}

func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return Guest
	}
	return Authenticated
}

func (s *Session) UserKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userKey
}

// Token implements oauth2.TokenSource.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	tokens := s.tokens
	s.mu.RUnlock()
	if tokens == nil {
		return nil, ErrNotLoggedIn
	}
	return tokens.Token()
}
