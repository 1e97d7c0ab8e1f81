package lightroom

import "fmt"

// ProviderError is a non-2xx response from the Lightroom API, with the
// provider's own error code and message preserved.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("lightroom api error: status %d, code %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("lightroom api error: status %d: %s", e.Status, e.Message)
}

// NotFoundError means the provider reported a requested resource id unknown.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// MalformedResponseError means a provider payload was missing a required
// field or carried the wrong type for it. Identity fields are never silently
// defaulted.
type MalformedResponseError struct {
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed provider response: field %q", e.Field)
	}
	return fmt.Sprintf("malformed provider response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
