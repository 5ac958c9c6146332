package domain

import (
	"context"
)

// Client represents a connected client interface
type Client interface {
	// ID returns the unique identifier of the client
	ID() string

	// Send queues one message for delivery to the client
	Send(ctx context.Context, message []byte) error

	// Close closes the client connection
	Close() error

	// Context is done once the connection is closed
	Context() context.Context
}

// LineHandler handles one inbound text line from a client and returns
// the replies that are private to that client.
type LineHandler interface {
	HandleLine(ctx context.Context, client Client, line string) []string
}
