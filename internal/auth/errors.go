package auth

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// CSRFError rejects a callback whose state parameter does not match the
// single-use value issued for the session.
type CSRFError struct {
	Reason string
}

func (e *CSRFError) Error() string {
	return fmt.Sprintf("oauth state validation failed: %s", e.Reason)
}

// TokenExchangeError reports a non-2xx response from the provider's token
// endpoint, for both the authorization-code and refresh-token grants.
type TokenExchangeError struct {
	Status int
	Body   string
	Err    error
}

func (e *TokenExchangeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("token exchange failed: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// AuthExpiredError means the provider no longer accepts the session's tokens
// and the user must log in again. The session's token pair has been cleared
// by the time this error is returned.
type AuthExpiredError struct {
	Err error
}

func (e *AuthExpiredError) Error() string {
	return "authentication expired, login required"
}

func (e *AuthExpiredError) Unwrap() error { return e.Err }

// TransportError wraps a network-level failure (timeout, DNS, connection
// reset) talking to the provider. It never mutates session state and is not
// retried at this layer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// mapTokenError translates oauth2 library failures into the typed taxonomy:
// an HTTP-level rejection becomes a TokenExchangeError carrying status and
// body, anything else is a TransportError.
func mapTokenError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &TokenExchangeError{Status: status, Body: string(re.Body), Err: err}
	}
	return &TransportError{Op: op, Err: err}
}
