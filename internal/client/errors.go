package client

import (
	"errors"
	"fmt"
)

// ErrNetwork: backend unreachable, timeout or transport failure.
// ErrService: backend reachable but answered non-2xx or a non-success
// status body.
var (
	ErrNetwork = errors.New("network error")
	ErrService = errors.New("service error")
)

func newErrNetwork(err error) error {
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

func newErrService(reason string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrService, fmt.Sprintf(reason, args...))
}
