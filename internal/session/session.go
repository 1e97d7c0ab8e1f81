// Package session holds per-browser authentication state: the OAuth token
// pair, the pending anti-CSRF state, and the gate state machine the web layer
// consults before serving anything. Nothing here survives a process restart.
package session

import (
	"sync"
	"time"
)

// GateState is the authentication state surfaced to the web layer.
type GateState string

const (
	StateAnonymous      GateState = "anonymous"
	StateAuthenticating GateState = "authenticating"
	StateAuthenticated  GateState = "authenticated"
	StateExpired        GateState = "expired"
)

// TokenPair is the access/refresh token pair issued by the provider.
// ExpiresAt is derived from issuance time plus the provider-reported TTL.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Valid reports whether the pair can authenticate a request right now.
func (t *TokenPair) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && t.ExpiresAt.After(now)
}

// NeedsRefresh reports whether the pair is expired or within skew of expiry.
func (t *TokenPair) NeedsRefresh(now time.Time, skew time.Duration) bool {
	return t != nil && !t.ExpiresAt.After(now.Add(skew))
}

type pendingState struct {
	value     string
	expiresAt time.Time
}

// Session identifies one browser user. It owns at most one TokenPair and at
// most one pending OAuth state. All methods are safe for concurrent use.
type Session struct {
	ID string

	mu         sync.Mutex
	state      GateState
	tokens     *TokenPair
	oauthState *pendingState
	catalogID  string
}

func newSession(id string) *Session {
	return &Session{ID: id, state: StateAnonymous}
}

// State returns the current gate state.
func (s *Session) State() GateState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tokens returns a copy of the current token pair, or nil.
func (s *Session) Tokens() *TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return nil
	}
	cp := *s.tokens
	return &cp
}

// SetTokens stores a token pair and moves the session to Authenticated.
func (s *Session) SetTokens(tp TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = &tp
	s.state = StateAuthenticated
}

// BeginAuth records a fresh single-use OAuth state and moves the session to
// Authenticating. Any previous pending state or token pair is discarded, which
// also covers the Expired -> Authenticating transition on re-login.
func (s *Session) BeginAuth(state string, ttl time.Duration, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	s.oauthState = &pendingState{value: state, expiresAt: now.Add(ttl)}
	s.state = StateAuthenticating
}

// ConsumeOAuthState removes and returns the pending state value. It is
// single-use: a second call returns ok=false, as does a call after the state's
// TTL has elapsed.
func (s *Session) ConsumeOAuthState(now time.Time) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps := s.oauthState
	s.oauthState = nil
	if ps == nil || now.After(ps.expiresAt) {
		return "", false
	}
	return ps.value, true
}

// Expire clears the token pair and moves the session to Expired. Called when
// the provider rejects a freshly refreshed token.
func (s *Session) Expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	s.state = StateExpired
}

// Reset returns the session to Anonymous with no partial state retained.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	s.oauthState = nil
	s.catalogID = ""
	s.state = StateAnonymous
}

// CatalogID returns the cached Lightroom catalog id, if discovered.
func (s *Session) CatalogID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalogID
}

// SetCatalogID caches the Lightroom catalog id for the session's lifetime.
func (s *Session) SetCatalogID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogID = id
}
