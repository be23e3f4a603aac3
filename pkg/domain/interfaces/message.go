package interfaces

import (
	"context"

	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// MessageRepository defines the interface for transcript persistence
type MessageRepository interface {
	// Append stores a message at the end of the conversation transcript
	Append(ctx context.Context, msg *model.Message) error

	// ListByConversation retrieves the full transcript in chronological
	// order. Messages with the same timestamp are ordered by ID.
	ListByConversation(ctx context.Context, id types.ConversationID) ([]*model.Message, error)

	// Recent retrieves the last n messages of the transcript in
	// chronological order
	Recent(ctx context.Context, id types.ConversationID, n int) ([]*model.Message, error)

	// LatestPerConversation retrieves the newest message of each given
	// conversation. Conversations without messages are absent from the map.
	LatestPerConversation(ctx context.Context, ids []types.ConversationID) (map[types.ConversationID]*model.Message, error)
}
