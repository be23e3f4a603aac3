package types

import "fmt"

// MessageOrigin represents which side of the relay produced a message
type MessageOrigin string

const (
	// OriginUser marks a message typed by the end user
	OriginUser MessageOrigin = "user"
	// OriginSystem marks a message produced by the relay itself
	OriginSystem MessageOrigin = "system"
	// OriginExternal marks a message received from the external messaging platform
	OriginExternal MessageOrigin = "external"
)

// AllMessageOrigins returns all valid message origins
func AllMessageOrigins() []MessageOrigin {
	return []MessageOrigin{
		OriginUser,
		OriginSystem,
		OriginExternal,
	}
}

// IsValid checks if the message origin is valid
func (o MessageOrigin) IsValid() bool {
	switch o {
	case OriginUser,
		OriginSystem,
		OriginExternal:
		return true
	default:
		return false
	}
}

// String returns the string representation of the message origin
func (o MessageOrigin) String() string {
	return string(o)
}

// ParseMessageOrigin parses a string into a MessageOrigin
func ParseMessageOrigin(s string) (MessageOrigin, error) {
	origin := MessageOrigin(s)
	if !origin.IsValid() {
		return "", fmt.Errorf("invalid message origin: %s", s)
	}
	return origin, nil
}
