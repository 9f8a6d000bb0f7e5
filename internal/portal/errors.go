package portal

import (
	"errors"
	"fmt"
)

// ErrNotLoggedIn is returned by FetchReadings when Login has not succeeded.
var ErrNotLoggedIn = errors.New("portal: not logged in")

// AuthError means the portal rejected the credentials or the login response
// did not contain the expected session markers. Not retried within a cycle;
// the caller should surface it as "reconfiguration required".
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("portal: authentication failed: %s", e.Reason)
}

// TransportError is a non-success HTTP status from any portal call.
type TransportError struct {
	Endpoint string
	Status   int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("portal: %s: status %d", e.Endpoint, e.Status)
}

// DataError means the portal returned a malformed or empty payload.
type DataError struct {
	Endpoint string
	Err      error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("portal: %s: bad payload: %v", e.Endpoint, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }
