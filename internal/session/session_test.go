package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPairValid(t *testing.T) {
	now := time.Now()

	var nilPair *TokenPair
	assert.False(t, nilPair.Valid(now))

	assert.False(t, (&TokenPair{ExpiresAt: now.Add(time.Hour)}).Valid(now), "missing access token")
	assert.False(t, (&TokenPair{AccessToken: "a", ExpiresAt: now.Add(-time.Second)}).Valid(now), "expired")
	assert.True(t, (&TokenPair{AccessToken: "a", ExpiresAt: now.Add(time.Hour)}).Valid(now))
}

func TestTokenPairNeedsRefresh(t *testing.T) {
	now := time.Now()
	skew := time.Minute

	assert.True(t, (&TokenPair{ExpiresAt: now.Add(-time.Second)}).NeedsRefresh(now, skew), "already expired")
	assert.True(t, (&TokenPair{ExpiresAt: now.Add(30 * time.Second)}).NeedsRefresh(now, skew), "inside skew window")
	assert.False(t, (&TokenPair{ExpiresAt: now.Add(2 * time.Minute)}).NeedsRefresh(now, skew))
}

func TestSessionStateMachine(t *testing.T) {
	now := time.Now()
	sess := newSession("s1")
	assert.Equal(t, StateAnonymous, sess.State())

	sess.BeginAuth("state-1", 10*time.Minute, now)
	assert.Equal(t, StateAuthenticating, sess.State())

	sess.SetTokens(TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresAt: now.Add(time.Hour)})
	assert.Equal(t, StateAuthenticated, sess.State())

	sess.Expire()
	assert.Equal(t, StateExpired, sess.State())
	assert.Nil(t, sess.Tokens())

	// Expired -> Authenticating on re-login
	sess.BeginAuth("state-2", 10*time.Minute, now)
	assert.Equal(t, StateAuthenticating, sess.State())

	sess.Reset()
	assert.Equal(t, StateAnonymous, sess.State())
	_, ok := sess.ConsumeOAuthState(now)
	assert.False(t, ok, "reset must drop pending state")
}

func TestConsumeOAuthStateSingleUse(t *testing.T) {
	now := time.Now()
	sess := newSession("s1")
	sess.BeginAuth("the-state", 10*time.Minute, now)

	got, ok := sess.ConsumeOAuthState(now)
	require.True(t, ok)
	assert.Equal(t, "the-state", got)

	_, ok = sess.ConsumeOAuthState(now)
	assert.False(t, ok, "state must be single-use")
}

func TestConsumeOAuthStateExpired(t *testing.T) {
	now := time.Now()
	sess := newSession("s1")
	sess.BeginAuth("the-state", time.Minute, now)

	_, ok := sess.ConsumeOAuthState(now.Add(2 * time.Minute))
	assert.False(t, ok, "state past TTL must not validate")
}

func TestBeginAuthOverwritesPendingState(t *testing.T) {
	now := time.Now()
	sess := newSession("s1")
	sess.BeginAuth("first", 10*time.Minute, now)
	sess.BeginAuth("second", 10*time.Minute, now)

	got, ok := sess.ConsumeOAuthState(now)
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestTokensReturnsCopy(t *testing.T) {
	sess := newSession("s1")
	sess.SetTokens(TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)})

	tp := sess.Tokens()
	tp.AccessToken = "mutated"
	assert.Equal(t, "a", sess.Tokens().AccessToken)
}

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()

	a := store.Create()
	b := store.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, store.Len())

	got, ok := store.Get(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	store.Delete(a.ID)
	_, ok = store.Get(a.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())
}
