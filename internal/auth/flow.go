package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/lumina-photos/lumina/internal/config"
	"github.com/lumina-photos/lumina/internal/logger"
	"github.com/lumina-photos/lumina/internal/session"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// stateBytes gives 256 bits of entropy for the anti-CSRF state value.
const stateBytes = 32

// Flow drives the OAuth2 authorization-code lifecycle for one provider.
// Refresh is single-flight per session: concurrent callers that find an
// expired token trigger exactly one provider call and share its outcome.
type Flow struct {
	provider *Provider
	cfg      *config.AdobeConfig
	stateTTL time.Duration
	group    singleflight.Group
	now      func() time.Time
}

// NewFlow creates the authorization flow.
func NewFlow(provider *Provider, cfg *config.AdobeConfig, sessCfg *config.SessionConfig) *Flow {
	return &Flow{
		provider: provider,
		cfg:      cfg,
		stateTTL: sessCfg.StateTTL,
		now:      time.Now,
	}
}

// BuildAuthorizationURL issues a fresh single-use state for the session and
// returns the provider authorization URL to redirect the user to.
func (f *Flow) BuildAuthorizationURL(sess *session.Session) (string, error) {
	if f.cfg.ClientID == "" || f.cfg.RedirectURI == "" {
		return "", &config.ConfigError{Key: "adobe", Reason: "client_id and redirect_uri must be configured"}
	}

	state, err := newStateValue()
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}

	sess.BeginAuth(state, f.stateTTL, f.now())
	return f.provider.AuthCodeURL(state), nil
}

// HandleCallback validates the state parameter and exchanges the
// authorization code for tokens. The pending state is consumed whatever the
// outcome; on any failure the session returns to Anonymous with no partial
// state retained.
func (f *Flow) HandleCallback(ctx context.Context, sess *session.Session, receivedState, code string) (session.TokenPair, error) {
	issued, ok := sess.ConsumeOAuthState(f.now())
	if !ok {
		sess.Reset()
		return session.TokenPair{}, &CSRFError{Reason: "no pending state for session"}
	}
	if subtle.ConstantTimeCompare([]byte(issued), []byte(receivedState)) != 1 {
		sess.Reset()
		return session.TokenPair{}, &CSRFError{Reason: "state mismatch"}
	}

	logger.Info("exchanging authorization code", zap.String("session", sess.ID))
	tok, err := f.provider.Exchange(ctx, code)
	if err != nil {
		sess.Reset()
		mapped := mapTokenError("authorization code exchange", err)
		logger.Error("authorization code exchange failed", zap.Error(mapped))
		return session.TokenPair{}, mapped
	}

	tp := tokenPairFrom(tok, "")
	sess.SetTokens(tp)
	logger.Info("access token obtained", zap.String("session", sess.ID), zap.Time("expires_at", tp.ExpiresAt))
	return tp, nil
}

// Refresh exchanges the session's refresh token for a new token pair. Safe to
// call concurrently for the same session: only one provider call is in flight
// per session id and all waiters observe its result. Each refresh response's
// refresh token is authoritative and overwrites the stored one.
func (f *Flow) Refresh(ctx context.Context, sess *session.Session) (session.TokenPair, error) {
	v, err, _ := f.group.Do(sess.ID, func() (interface{}, error) {
		tp := sess.Tokens()
		if tp == nil || tp.RefreshToken == "" {
			return nil, &TokenExchangeError{Err: fmt.Errorf("no refresh token held for session")}
		}

		logger.Info("refreshing access token", zap.String("session", sess.ID))
		tok, err := f.provider.Refresh(ctx, tp.RefreshToken)
		if err != nil {
			mapped := mapTokenError("token refresh", err)
			logger.Error("token refresh failed", zap.Error(mapped))
			return nil, mapped
		}

		ntp := tokenPairFrom(tok, tp.RefreshToken)
		sess.SetTokens(ntp)
		logger.Info("access token refreshed", zap.String("session", sess.ID), zap.Time("expires_at", ntp.ExpiresAt))
		return ntp, nil
	})
	if err != nil {
		return session.TokenPair{}, err
	}
	return v.(session.TokenPair), nil
}

func tokenPairFrom(tok *oauth2.Token, previousRefresh string) session.TokenPair {
	tp := session.TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if tp.RefreshToken == "" {
		tp.RefreshToken = previousRefresh
	}
	return tp
}

func newStateValue() (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
