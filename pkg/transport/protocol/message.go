// Package protocol defines the plain-text lines exchanged with clients.
package protocol

import (
	"strings"
)

const (
	ackPrefix   = "Command sent: "
	errorPrefix = "Error: "

	// MissingSentinel is the reply to a line that is not a command.
	MissingSentinel = errorPrefix + "Commands must start with #"
)

// Ack acknowledges one instruction written to the process.
func Ack(instruction string) string {
	return ackPrefix + instruction
}

// Error reports a rejected or failed command.
func Error(reason string) string {
	return errorPrefix + reason
}

// Kind classifies an outbound line.
type Kind int

const (
	KindOutput Kind = iota
	KindAck
	KindError
)

// Classify reports which kind of outbound line s is.
func Classify(s string) Kind {
	switch {
	case strings.HasPrefix(s, ackPrefix):
		return KindAck
	case strings.HasPrefix(s, errorPrefix):
		return KindError
	default:
		return KindOutput
	}
}
