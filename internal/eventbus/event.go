package eventbus

import (
	"time"

	"github.com/rs/xid"
)

// EventType represents the type of event
type EventType string

// Event types
const (
	EventClientConnected    EventType = "client.connected"
	EventClientDisconnected EventType = "client.disconnected"
	EventCommandSubmitted   EventType = "command.submitted"
	EventCommandRejected    EventType = "command.rejected"
	EventProcessExited      EventType = "process.exited"
)

// Event represents a broker lifecycle event
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Source    string            `json:"source"`
	Data      map[string]string `json:"data,omitempty"`
}

// NewEvent creates a new event
func NewEvent(eventType EventType, source string, data map[string]string) *Event {
	return &Event{
		ID:        xid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	}
}
