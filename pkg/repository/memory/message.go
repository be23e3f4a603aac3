package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

type messageRepository struct {
	mu             sync.RWMutex
	byConversation map[types.ConversationID][]*model.Message
}

func newMessageRepository() *messageRepository {
	return &messageRepository{
		byConversation: make(map[types.ConversationID][]*model.Message),
	}
}

// sortMessages orders messages chronologically, breaking timestamp ties by
// ID so concurrent appends within the same instant stay stable
func sortMessages(msgs []*model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}

func (r *messageRepository) Append(ctx context.Context, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byConversation[msg.ConversationID] = append(r.byConversation[msg.ConversationID], msg.Clone())
	return nil
}

func (r *messageRepository) ListByConversation(ctx context.Context, id types.ConversationID) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byConversation[id]
	result := make([]*model.Message, 0, len(stored))
	for _, msg := range stored {
		result = append(result, msg.Clone())
	}

	sortMessages(result)
	return result, nil
}

func (r *messageRepository) Recent(ctx context.Context, id types.ConversationID, n int) ([]*model.Message, error) {
	if n <= 0 {
		return []*model.Message{}, nil
	}

	msgs, err := r.ListByConversation(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return msgs, nil
}

func (r *messageRepository) LatestPerConversation(ctx context.Context, ids []types.ConversationID) (map[types.ConversationID]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[types.ConversationID]*model.Message, len(ids))
	for _, id := range ids {
		stored := r.byConversation[id]
		if len(stored) == 0 {
			continue
		}

		msgs := make([]*model.Message, len(stored))
		copy(msgs, stored)
		sortMessages(msgs)
		result[id] = msgs[len(msgs)-1].Clone()
	}

	return result, nil
}

func (r *messageRepository) purgeConversation(id types.ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byConversation, id)
}
