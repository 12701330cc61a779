package client

import "errors"

var (
	// ErrUnavailable means the request never produced a server response:
	// connection refused, reset, timeout. The cycle aborts and the outbox
	// stays intact.
	ErrUnavailable = errors.New("server unavailable")

	// ErrBadStatus means the server answered with a non-success HTTP code.
	ErrBadStatus = errors.New("unexpected server status")

	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)
