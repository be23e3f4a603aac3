package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/model/auth"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// ListMemories returns the conversation's stored facts, newest first
func (uc *UseCases) ListMemories(ctx context.Context, user *auth.User, id types.ConversationID) ([]*model.Memory, error) {
	if _, err := uc.getOwnedConversation(ctx, user, id); err != nil {
		return nil, err
	}

	memories, err := uc.repo.Memory().List(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V(ConversationIDKey, id))
	}
	return memories, nil
}

// CreateMemory stores a user-authored fact on the conversation. These sit
// alongside extracted facts and are injected into decision context the same
// way.
func (uc *UseCases) CreateMemory(ctx context.Context, user *auth.User, id types.ConversationID, content string) (*model.Memory, error) {
	if _, err := uc.getOwnedConversation(ctx, user, id); err != nil {
		return nil, err
	}

	mem := model.NewMemory(id, content)
	if err := uc.repo.Memory().Create(ctx, mem); err != nil {
		return nil, goerr.Wrap(err, "failed to create memory", goerr.V(ConversationIDKey, id))
	}
	return mem, nil
}

// DeleteMemory removes a stored fact from the conversation
func (uc *UseCases) DeleteMemory(ctx context.Context, user *auth.User, id types.ConversationID, memoryID types.MemoryID) error {
	if _, err := uc.getOwnedConversation(ctx, user, id); err != nil {
		return err
	}

	if err := uc.repo.Memory().Delete(ctx, id, memoryID); err != nil {
		return goerr.Wrap(err, "failed to delete memory",
			goerr.V(ConversationIDKey, id),
			goerr.V(MemoryIDKey, memoryID),
		)
	}
	return nil
}
