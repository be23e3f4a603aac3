package model

import (
	"time"

	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// Conversation represents an internal chat thread owned by one user.
// A conversation may be correlated with at most one external live-agent
// session at a time; SessionID is empty until a session is established.
type Conversation struct {
	ID            types.ConversationID
	OwnerID       types.UserID
	OwnerAddress  string // base contact address used for address-tagging
	Status        types.ConversationStatus
	SessionID     types.SessionID
	SessionActive bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewConversation creates an OPEN conversation for the given owner
func NewConversation(ownerID types.UserID, ownerAddress string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:           types.NewConversationID(),
		OwnerID:      ownerID,
		OwnerAddress: ownerAddress,
		Status:       types.ConversationStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsClosed reports whether the conversation no longer accepts messages
func (c *Conversation) IsClosed() bool {
	return c.Status.Normalize() == types.ConversationStatusClosed
}

// HasActiveSession reports whether an external session is currently mapped
func (c *Conversation) HasActiveSession() bool {
	return c.SessionActive && c.SessionID != ""
}

// Clone returns a deep copy of the conversation
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	copied := *c
	return &copied
}
