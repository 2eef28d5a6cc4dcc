package session

import "errors"

var (
	ErrNotAuthenticated = errors.New("session: not authenticated")
)
