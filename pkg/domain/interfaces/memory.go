package interfaces

import (
	"context"

	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// MemoryRepository defines the interface for Memory data persistence
type MemoryRepository interface {
	// Create creates a new memory entry under the conversation
	Create(ctx context.Context, memory *model.Memory) error

	// List retrieves all memory entries of the conversation, newest first
	List(ctx context.Context, conversationID types.ConversationID) ([]*model.Memory, error)

	// Delete deletes a memory entry by ID.
	// Returns ErrMemoryNotFound when no such entry exists.
	Delete(ctx context.Context, conversationID types.ConversationID, memoryID types.MemoryID) error
}
