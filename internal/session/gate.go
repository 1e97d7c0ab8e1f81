package session

import (
	"net/http"
	"time"
)

// LoginPath is where the gate sends unauthenticated users.
const LoginPath = "/login"

// Gate is the single place "must the user log in" is decided. The web layer
// calls RequireAuthenticated before serving any album or photo view.
type Gate struct {
	store *Store
	codec *CookieCodec
	now   func() time.Time
}

// NewGate creates a gate over the given store and cookie codec.
func NewGate(store *Store, codec *CookieCodec) *Gate {
	return &Gate{store: store, codec: codec, now: time.Now}
}

// SessionFor resolves the request's session from its signed cookie, creating
// a fresh anonymous session (and setting the cookie) when the cookie is
// missing, tampered with, or refers to a session this process never issued.
func (g *Gate) SessionFor(w http.ResponseWriter, r *http.Request) *Session {
	if id, ok := g.codec.Read(r); ok {
		if sess, found := g.store.Get(id); found {
			return sess
		}
	}
	sess := g.store.Create()
	g.codec.Write(w, sess.ID)
	return sess
}

// RequireAuthenticated reports whether the session may proceed. ok is true
// exactly when the session holds a token pair that has not expired; otherwise
// the returned URL is where the caller should redirect.
func (g *Gate) RequireAuthenticated(sess *Session) (bool, string) {
	if sess.State() == StateAuthenticated && sess.Tokens().Valid(g.now()) {
		return true, ""
	}
	return false, LoginPath
}

// Logout destroys the session and clears its cookie.
func (g *Gate) Logout(w http.ResponseWriter, sess *Session) {
	g.store.Delete(sess.ID)
	g.codec.Clear(w)
}
