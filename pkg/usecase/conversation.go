package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/model/auth"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/relaydesk/relaydesk/pkg/utils/logging"
)

// ConversationSummary pairs a conversation with its most recent message for
// list views. LatestMessage is nil for conversations without messages.
type ConversationSummary struct {
	Conversation  *model.Conversation
	LatestMessage *model.Message
}

// CreateConversation opens a new conversation owned by the user
func (uc *UseCases) CreateConversation(ctx context.Context, user *auth.User) (*model.Conversation, error) {
	conv := model.NewConversation(user.ID, user.Address)
	if err := uc.repo.Conversation().Create(ctx, conv); err != nil {
		return nil, goerr.Wrap(err, "failed to create conversation", goerr.V(UserIDKey, user.ID))
	}

	logging.From(ctx).Info("conversation created",
		ConversationIDKey, conv.ID,
		UserIDKey, user.ID,
	)
	return conv, nil
}

// ListConversations returns the user's conversations, newest first, each with
// its latest message
func (uc *UseCases) ListConversations(ctx context.Context, user *auth.User) ([]*ConversationSummary, error) {
	convs, err := uc.repo.Conversation().ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list conversations", goerr.V(UserIDKey, user.ID))
	}

	ids := make([]types.ConversationID, len(convs))
	for i, conv := range convs {
		ids[i] = conv.ID
	}

	latest, err := uc.repo.Message().LatestPerConversation(ctx, ids)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load latest messages", goerr.V(UserIDKey, user.ID))
	}

	summaries := make([]*ConversationSummary, len(convs))
	for i, conv := range convs {
		summaries[i] = &ConversationSummary{
			Conversation:  conv,
			LatestMessage: latest[conv.ID],
		}
	}
	return summaries, nil
}

// GetConversation returns the conversation after checking ownership
func (uc *UseCases) GetConversation(ctx context.Context, user *auth.User, id types.ConversationID) (*model.Conversation, error) {
	return uc.getOwnedConversation(ctx, user, id)
}

// CloseConversation transitions the conversation to CLOSED. Closed
// conversations accept no further messages; closing an already closed
// conversation is a no-op.
func (uc *UseCases) CloseConversation(ctx context.Context, user *auth.User, id types.ConversationID) (*model.Conversation, error) {
	conv, err := uc.getOwnedConversation(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if conv.IsClosed() {
		return conv, nil
	}

	if err := uc.repo.Conversation().UpdateStatus(ctx, id, types.ConversationStatusClosed); err != nil {
		return nil, goerr.Wrap(err, "failed to close conversation", goerr.V(ConversationIDKey, id))
	}
	conv.Status = types.ConversationStatusClosed

	logging.From(ctx).Info("conversation closed",
		ConversationIDKey, id,
		UserIDKey, user.ID,
	)
	return conv, nil
}

// DeleteConversation removes the conversation together with its messages and
// memories
func (uc *UseCases) DeleteConversation(ctx context.Context, user *auth.User, id types.ConversationID) error {
	if _, err := uc.getOwnedConversation(ctx, user, id); err != nil {
		return err
	}

	if err := uc.repo.Conversation().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete conversation", goerr.V(ConversationIDKey, id))
	}

	logging.From(ctx).Info("conversation deleted",
		ConversationIDKey, id,
		UserIDKey, user.ID,
	)
	return nil
}

// getOwnedConversation loads the conversation and verifies the user owns it.
// Non-owners get ErrConversationAccessDenied, never the conversation's data.
func (uc *UseCases) getOwnedConversation(ctx context.Context, user *auth.User, id types.ConversationID) (*model.Conversation, error) {
	conv, err := uc.repo.Conversation().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get conversation", goerr.V(ConversationIDKey, id))
	}

	if conv.OwnerID != user.ID {
		return nil, goerr.Wrap(ErrConversationAccessDenied, "conversation belongs to another user",
			goerr.V(ConversationIDKey, id),
			goerr.V(UserIDKey, user.ID),
		)
	}
	return conv, nil
}
