package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is a backend rejection: the non-2xx status plus the response body,
// passed through verbatim so callers can surface the server's own message.
type Error struct {
	Status int
	Body   json.RawMessage
}

func (e *Error) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("api: backend returned status %d", e.Status)
	}
	return fmt.Sprintf("api: backend returned status %d: %s", e.Status, string(e.Body))
}

// AsError unwraps a backend rejection from err, if one is there.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
