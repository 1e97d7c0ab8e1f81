package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lumina-photos/lumina/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec() *CookieCodec {
	return NewCookieCodec(&config.SessionConfig{
		Secret:     "test-signing-secret",
		CookieName: "lumina_session",
	})
}

func TestCookieCodecRoundTrip(t *testing.T) {
	codec := testCodec()

	rec := httptest.NewRecorder()
	codec.Write(rec, "some-session-id")

	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	id, ok := codec.Read(req)
	require.True(t, ok)
	assert.Equal(t, "some-session-id", id)
}

func TestCookieCodecRejectsTampering(t *testing.T) {
	codec := testCodec()

	rec := httptest.NewRecorder()
	codec.Write(rec, "session-a")
	signed := rec.Result().Cookies()[0]

	tests := []struct {
		name  string
		value string
	}{
		{"forged id", "session-b." + signed.Value[len("session-a."):]},
		{"no signature", "session-a"},
		{"garbage", "not-a-cookie-value."},
		{"wrong key signature", "session-a.deadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.AddCookie(&http.Cookie{Name: "lumina_session", Value: tt.value})
			_, ok := codec.Read(req)
			assert.False(t, ok)
		})
	}
}

func TestGateRequireAuthenticated(t *testing.T) {
	gate := NewGate(NewStore(), testCodec())
	now := time.Now()
	gate.now = func() time.Time { return now }

	sess := gate.store.Create()

	// Anonymous
	ok, redirect := gate.RequireAuthenticated(sess)
	assert.False(t, ok)
	assert.Equal(t, LoginPath, redirect)

	// Authenticated with a live token
	sess.SetTokens(TokenPair{AccessToken: "a", ExpiresAt: now.Add(time.Hour)})
	ok, _ = gate.RequireAuthenticated(sess)
	assert.True(t, ok)

	// Token past expiry
	sess.SetTokens(TokenPair{AccessToken: "a", ExpiresAt: now.Add(-time.Second)})
	ok, redirect = gate.RequireAuthenticated(sess)
	assert.False(t, ok)
	assert.Equal(t, LoginPath, redirect)

	// Expired state
	sess.Expire()
	ok, _ = gate.RequireAuthenticated(sess)
	assert.False(t, ok)
}

func TestGateSessionFor(t *testing.T) {
	gate := NewGate(NewStore(), testCodec())

	// No cookie: a new session is created and the cookie set
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	sess := gate.SessionFor(rec, req)
	require.NotNil(t, sess)
	require.NotEmpty(t, rec.Result().Cookies())

	// Replaying the issued cookie resolves the same session
	req2 := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		req2.AddCookie(c)
	}
	sess2 := gate.SessionFor(httptest.NewRecorder(), req2)
	assert.Same(t, sess, sess2)

	// A cookie for a session this process never issued gets a fresh one
	other := testCodec()
	rec3 := httptest.NewRecorder()
	other.Write(rec3, "unknown-session")
	req3 := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec3.Result().Cookies() {
		req3.AddCookie(c)
	}
	sess3 := gate.SessionFor(httptest.NewRecorder(), req3)
	assert.NotEqual(t, "unknown-session", sess3.ID)
}

func TestGateLogout(t *testing.T) {
	gate := NewGate(NewStore(), testCodec())
	sess := gate.store.Create()

	rec := httptest.NewRecorder()
	gate.Logout(rec, sess)

	_, ok := gate.store.Get(sess.ID)
	assert.False(t, ok)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Negative(t, cookies[0].MaxAge)
}
