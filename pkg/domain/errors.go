package domain

import (
	"errors"
)

// Common domain errors
var (
	// ErrHubClosed is returned when trying to use a hub that has been closed
	ErrHubClosed = errors.New("hub closed")
)
