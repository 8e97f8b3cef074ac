package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned on an explicit 401 from the backend. It is the
// only terminal signal: callers clear the local session on it and on nothing
// else.
var ErrUnauthorized = errors.New("api: unauthorized")

// StatusError is returned for any non-2xx status other than 401. It marks a
// soft server-side failure that must never invalidate the local session.
type StatusError struct {
	StatusCode int
	Detail     string
}

// Error returns the error message
func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: server returned %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api: server returned %d", e.StatusCode)
}

// IsServerError reports whether err is a soft non-2xx response.
func IsServerError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
