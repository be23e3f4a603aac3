package interfaces

import (
	"context"

	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// ConversationRepository defines the interface for Conversation data persistence
type ConversationRepository interface {
	// Create creates a new conversation
	Create(ctx context.Context, conv *model.Conversation) error

	// Get retrieves a conversation by ID.
	// Returns ErrConversationNotFound when no such conversation exists.
	Get(ctx context.Context, id types.ConversationID) (*model.Conversation, error)

	// ListByOwner retrieves all conversations owned by the given user,
	// newest first
	ListByOwner(ctx context.Context, ownerID types.UserID) ([]*model.Conversation, error)

	// UpdateStatus sets the conversation status and refreshes UpdatedAt
	UpdateStatus(ctx context.Context, id types.ConversationID, status types.ConversationStatus) error

	// EnsureSession returns the session bound to the conversation, binding
	// candidate when none exists yet. The bool reports whether candidate was
	// newly bound. Racing callers observe a single winning session ID.
	EnsureSession(ctx context.Context, id types.ConversationID, candidate types.SessionID) (types.SessionID, bool, error)

	// Delete removes the conversation together with its messages and memories
	Delete(ctx context.Context, id types.ConversationID) error
}
