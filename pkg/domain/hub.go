package domain

import (
	"context"
)

// Hub fans messages out to every registered client
type Hub interface {
	// Register adds a client; registering twice is a no-op
	Register(client Client) error

	// Unregister removes a client; unknown IDs are ignored
	Unregister(clientID string)

	// Publish delivers message to every registered client
	Publish(ctx context.Context, message []byte)

	// GetClient retrieves a client by ID
	GetClient(clientID string) (Client, bool)

	// GetClients returns a snapshot of the registered clients
	GetClients() []Client
}

// Publisher is the narrow side of Hub used by output producers
type Publisher interface {
	Publish(ctx context.Context, message []byte)
}

// HubStats provides statistics about the hub
type HubStats struct {
	ConnectedClients  int     `json:"connected_clients"`
	MessagesPublished int64   `json:"messages_published"`
	MessagesSent      int64   `json:"messages_sent"`
	SendFailures      int64   `json:"send_failures"`
	Uptime            float64 `json:"uptime_seconds"`
}
