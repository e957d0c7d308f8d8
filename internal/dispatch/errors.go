package dispatch

import "errors"

var (
	// ErrNoConnection indicates no register connection is currently bound.
	ErrNoConnection = errors.New("no register connection")
)
