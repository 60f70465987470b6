package api

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthMissing blocks an authenticated call before it is sent when no
	// token is persisted.
	ErrAuthMissing = errors.New("no session token, log in first")

	// ErrNetworkUnreachable wraps transport failures where no response was
	// received at all.
	ErrNetworkUnreachable = errors.New("loan service unreachable")
)

// ServerError carries a structured rejection from the remote API. Message is
// the server's error field verbatim, so views can surface it unchanged.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server rejected request (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("server rejected request (HTTP %d): %s", e.Status, e.Message)
}
