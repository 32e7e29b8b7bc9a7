package sdk

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Infinity2209/user/pkg/access"
)

var (
	// ErrUnauthenticated is returned when an operation needs a session and there is none,
	// or the server rejected the session's token.
	ErrUnauthenticated = errors.New("not signed in")

	// ErrUnauthorized is returned when the session's role may not use a capability.
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound is returned when the server has no record with the requested id.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response decoded from the server's {"error": ...} envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Is maps HTTP statuses onto the package sentinels so callers can use errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	case ErrUnauthorized:
		return e.Status == http.StatusForbidden
	}
	return false
}

// TransportError means the server could not be reached or its response could
// not be read. It is distinct from an empty result.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AccessError is returned by the client-side gate before any request is sent.
// Outcome tells the caller where to navigate: login or the default view.
type AccessError struct {
	Capability string
	Outcome    access.Outcome
}

func (e *AccessError) Error() string {
	if e.Outcome == access.OutcomeLogin {
		return fmt.Sprintf("%s requires signing in", e.Capability)
	}
	return fmt.Sprintf("%s is not permitted for this role", e.Capability)
}

func (e *AccessError) Unwrap() error {
	if e.Outcome == access.OutcomeLogin {
		return ErrUnauthenticated
	}
	return ErrUnauthorized
}

// IsTransportFailure reports whether err came from the transport rather than the server.
func IsTransportFailure(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
