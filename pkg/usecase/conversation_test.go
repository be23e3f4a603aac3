package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/relaydesk/relaydesk/pkg/repository/memory"
	"github.com/relaydesk/relaydesk/pkg/usecase"
)

func TestCreateConversation(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()
	user := testUser()

	conv, err := uc.CreateConversation(ctx, user)
	gt.NoError(t, err).Required()
	gt.Value(t, conv.OwnerID).Equal(user.ID)
	gt.Value(t, conv.OwnerAddress).Equal(user.Address)
	gt.Value(t, conv.Status).Equal(types.ConversationStatusOpen)
	gt.B(t, conv.IsClosed()).False()
	gt.B(t, conv.HasActiveSession()).False()

	stored, err := repo.Conversation().Get(ctx, conv.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, stored.ID).Equal(conv.ID)
}

func TestListConversations(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithOracle(&mockOracle{}))
	ctx := context.Background()
	user := testUser()

	first, err := uc.CreateConversation(ctx, user)
	gt.NoError(t, err).Required()
	second, err := uc.CreateConversation(ctx, user)
	gt.NoError(t, err).Required()

	_, err = uc.HandleUserMessage(ctx, first.ID, "hello there", user.Address)
	gt.NoError(t, err).Required()

	summaries, err := uc.ListConversations(ctx, user)
	gt.NoError(t, err).Required()
	gt.Array(t, summaries).Length(2).Required()

	// Newest conversation first; only the first one has messages.
	gt.Value(t, summaries[0].Conversation.ID).Equal(second.ID)
	gt.Value(t, summaries[0].LatestMessage).Nil()
	gt.Value(t, summaries[1].Conversation.ID).Equal(first.ID)
	gt.Value(t, summaries[1].LatestMessage).NotNil()

	// Other users see nothing.
	none, err := uc.ListConversations(ctx, otherUser())
	gt.NoError(t, err).Required()
	gt.Array(t, none).Length(0)
}

func TestGetConversation(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()
	user := testUser()

	conv, err := uc.CreateConversation(ctx, user)
	gt.NoError(t, err).Required()

	t.Run("owner can read", func(t *testing.T) {
		got, err := uc.GetConversation(ctx, user, conv.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(conv.ID)
	})

	t.Run("non-owner is denied", func(t *testing.T) {
		_, err := uc.GetConversation(ctx, otherUser(), conv.ID)
		gt.Error(t, err).Is(usecase.ErrConversationAccessDenied)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		_, err := uc.GetConversation(ctx, user, types.NewConversationID())
		gt.Error(t, err).Is(interfaces.ErrConversationNotFound)
	})
}

func TestCloseConversation(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo)
	ctx := context.Background()
	user := testUser()

	conv, err := uc.CreateConversation(ctx, user)
	gt.NoError(t, err).Required()

	closed, err := uc.CloseConversation(ctx, user, conv.ID)
	gt.NoError(t, err).Required()
	gt.B(t, closed.IsClosed()).True()

	t.Run("closing again is a no-op", func(t *testing.T) {
		again, err := uc.CloseConversation(ctx, user, conv.ID)
		gt.NoError(t, err).Required()
		gt.B(t, again.IsClosed()).True()
	})

	t.Run("non-owner is denied", func(t *testing.T) {
		other, err := uc.CreateConversation(ctx, user)
		gt.NoError(t, err).Required()

		_, err = uc.CloseConversation(ctx, otherUser(), other.ID)
		gt.Error(t, err).Is(usecase.ErrConversationAccessDenied)
	})
}

func TestDeleteConversation(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithOracle(&mockOracle{}))
	ctx := context.Background()
	user := testUser()

	conv, err := uc.CreateConversation(ctx, user)
	gt.NoError(t, err).Required()

	_, err = uc.HandleUserMessage(ctx, conv.ID, "to be deleted", user.Address)
	gt.NoError(t, err).Required()
	gt.NoError(t, repo.Memory().Create(ctx, model.NewMemory(conv.ID, "some fact"))).Required()

	t.Run("non-owner is denied", func(t *testing.T) {
		gt.Error(t, uc.DeleteConversation(ctx, otherUser(), conv.ID)).Is(usecase.ErrConversationAccessDenied)
	})

	gt.NoError(t, uc.DeleteConversation(ctx, user, conv.ID)).Required()

	_, err = repo.Conversation().Get(ctx, conv.ID)
	gt.Error(t, err).Is(interfaces.ErrConversationNotFound)

	// Cascade removed the transcript and memories.
	msgs, err := repo.Message().ListByConversation(ctx, conv.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, msgs).Length(0)

	memories, err := repo.Memory().List(ctx, conv.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, memories).Length(0)
}
