package types

import "github.com/google/uuid"

// ConversationID represents a unique identifier for a conversation
type ConversationID string

// NewConversationID generates a new unique ConversationID
func NewConversationID() ConversationID {
	return ConversationID(uuid.New().String())
}

// String returns the string representation of ConversationID
func (x ConversationID) String() string {
	return string(x)
}

// MessageID represents a unique identifier for a message.
// v7 UUIDs keep message identifiers time-ordered so they can break
// creation-timestamp ties in a stable way.
type MessageID string

// NewMessageID generates a new time-ordered MessageID
func NewMessageID() MessageID {
	return MessageID(uuid.Must(uuid.NewV7()).String())
}

// String returns the string representation of MessageID
func (x MessageID) String() string {
	return string(x)
}

// MemoryID represents a unique identifier for a durable memory entry
type MemoryID string

// NewMemoryID generates a new unique MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// String returns the string representation of MemoryID
func (x MemoryID) String() string {
	return string(x)
}

// SessionID represents an external messaging session identifier
type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// String returns the string representation of SessionID
func (x SessionID) String() string {
	return string(x)
}

// UserID represents a unique identifier for a user
type UserID string

// String returns the string representation of UserID
func (x UserID) String() string {
	return string(x)
}

// ExternalEventID represents a vendor-assigned event identifier
type ExternalEventID string

// String returns the string representation of ExternalEventID
func (x ExternalEventID) String() string {
	return string(x)
}
