package memory

import (
	"context"
	"sync"

	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

type eventRepository struct {
	mu        sync.Mutex
	processed map[types.ExternalEventID]struct{}
}

func newEventRepository() *eventRepository {
	return &eventRepository{
		processed: make(map[types.ExternalEventID]struct{}),
	}
}

func (r *eventRepository) MarkProcessed(ctx context.Context, id types.ExternalEventID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.processed[id]; exists {
		return false, nil
	}

	r.processed[id] = struct{}{}
	return true, nil
}
