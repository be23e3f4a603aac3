package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

type memoryRepository struct {
	mu      sync.RWMutex
	entries map[types.ConversationID]map[types.MemoryID]*model.Memory
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		entries: make(map[types.ConversationID]map[types.MemoryID]*model.Memory),
	}
}

func (r *memoryRepository) Create(ctx context.Context, mem *model.Memory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, exists := r.entries[mem.ConversationID]
	if !exists {
		bucket = make(map[types.MemoryID]*model.Memory)
		r.entries[mem.ConversationID] = bucket
	}

	bucket[mem.ID] = mem.Clone()
	return nil
}

func (r *memoryRepository) List(ctx context.Context, conversationID types.ConversationID) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket, exists := r.entries[conversationID]
	if !exists {
		return []*model.Memory{}, nil
	}

	result := make([]*model.Memory, 0, len(bucket))
	for _, m := range bucket {
		result = append(result, m.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *memoryRepository) Delete(ctx context.Context, conversationID types.ConversationID, memoryID types.MemoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, exists := r.entries[conversationID]
	if !exists {
		return goerr.Wrap(interfaces.ErrMemoryNotFound, "memory not found", goerr.V("memoryID", memoryID))
	}

	if _, exists := bucket[memoryID]; !exists {
		return goerr.Wrap(interfaces.ErrMemoryNotFound, "memory not found", goerr.V("memoryID", memoryID))
	}

	delete(bucket, memoryID)
	return nil
}

func (r *memoryRepository) purgeConversation(id types.ConversationID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, id)
}
