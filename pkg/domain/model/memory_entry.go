package model

import (
	"time"

	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// Memory represents a durable fact extracted from a conversation, such as a
// vendor name or an account number. Memories survive transcript truncation:
// they are always injected into the decision context even when the recency
// window has scrolled past the message they came from. They are never deleted
// automatically.
type Memory struct {
	ID             types.MemoryID
	ConversationID types.ConversationID
	Content        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewMemory creates a memory entry with a generated ID and timestamps
func NewMemory(conversationID types.ConversationID, content string) *Memory {
	now := time.Now().UTC()
	return &Memory{
		ID:             types.NewMemoryID(),
		ConversationID: conversationID,
		Content:        content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy of the memory entry
func (m *Memory) Clone() *Memory {
	if m == nil {
		return nil
	}
	copied := *m
	return &copied
}
