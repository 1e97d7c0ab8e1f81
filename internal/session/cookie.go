package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/lumina-photos/lumina/internal/config"
)

// CookieCodec reads and writes the HMAC-signed session cookie. The cookie
// value is "<session id>.<hex hmac-sha256>"; a bad signature is treated the
// same as no cookie at all.
type CookieCodec struct {
	name   string
	secret []byte
}

// NewCookieCodec creates a codec signing with the configured session secret.
func NewCookieCodec(cfg *config.SessionConfig) *CookieCodec {
	return &CookieCodec{name: cfg.CookieName, secret: []byte(cfg.Secret)}
}

func (c *CookieCodec) sign(id string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

// Write sets the session cookie on the response.
func (c *CookieCodec) Write(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    sessionID + "." + c.sign(sessionID),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read extracts and verifies the session id from the request cookie.
func (c *CookieCodec) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return "", false
	}
	id, sig, found := strings.Cut(cookie.Value, ".")
	if !found || id == "" {
		return "", false
	}
	expected := c.sign(id)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", false
	}
	return id, true
}

// Clear expires the session cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
