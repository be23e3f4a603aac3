package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

type conversationRepository struct {
	mu            sync.RWMutex
	conversations map[types.ConversationID]*model.Conversation

	messages *messageRepository
	memories *memoryRepository
}

func newConversationRepository(messages *messageRepository, memories *memoryRepository) *conversationRepository {
	return &conversationRepository{
		conversations: make(map[types.ConversationID]*model.Conversation),
		messages:      messages,
		memories:      memories,
	}
}

func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conversations[conv.ID]; exists {
		return goerr.New("conversation already exists", goerr.V("id", conv.ID))
	}

	r.conversations[conv.ID] = conv.Clone()
	return nil
}

func (r *conversationRepository) Get(ctx context.Context, id types.ConversationID) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, exists := r.conversations[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrConversationNotFound, "conversation not found", goerr.V("id", id))
	}

	return conv.Clone(), nil
}

func (r *conversationRepository) ListByOwner(ctx context.Context, ownerID types.UserID) ([]*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Conversation, 0)
	for _, conv := range r.conversations {
		if conv.OwnerID == ownerID {
			result = append(result, conv.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *conversationRepository) UpdateStatus(ctx context.Context, id types.ConversationID, status types.ConversationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, exists := r.conversations[id]
	if !exists {
		return goerr.Wrap(interfaces.ErrConversationNotFound, "conversation not found", goerr.V("id", id))
	}

	conv.Status = status
	conv.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *conversationRepository) EnsureSession(ctx context.Context, id types.ConversationID, candidate types.SessionID) (types.SessionID, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, exists := r.conversations[id]
	if !exists {
		return "", false, goerr.Wrap(interfaces.ErrConversationNotFound, "conversation not found", goerr.V("id", id))
	}

	if conv.SessionActive && conv.SessionID != "" {
		return conv.SessionID, false, nil
	}

	conv.SessionID = candidate
	conv.SessionActive = true
	conv.UpdatedAt = time.Now().UTC()
	return candidate, true, nil
}

func (r *conversationRepository) Delete(ctx context.Context, id types.ConversationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conversations[id]; !exists {
		return goerr.Wrap(interfaces.ErrConversationNotFound, "conversation not found", goerr.V("id", id))
	}

	delete(r.conversations, id)
	r.messages.purgeConversation(id)
	r.memories.purgeConversation(id)
	return nil
}
