package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/relaydesk/relaydesk/pkg/repository/firestore"
	"github.com/relaydesk/relaydesk/pkg/repository/memory"
)

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func runConversationRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		repo := newRepo(t)
		conv := model.NewConversation("user-1", "user-1@example.com")

		gt.NoError(t, repo.Conversation().Create(ctx, conv)).Required()

		got, err := repo.Conversation().Get(ctx, conv.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(conv.ID)
		gt.Value(t, got.OwnerID).Equal(types.UserID("user-1"))
		gt.Value(t, got.OwnerAddress).Equal("user-1@example.com")
		gt.Value(t, got.Status).Equal(types.ConversationStatusOpen)
		gt.B(t, got.HasActiveSession()).False()
	})

	t.Run("Get returns not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Conversation().Get(ctx, types.NewConversationID())
		gt.Error(t, err)
		gt.B(t, errors.Is(err, interfaces.ErrConversationNotFound)).True()
	})

	t.Run("ListByOwner newest first", func(t *testing.T) {
		repo := newRepo(t)
		now := time.Now().UTC().Truncate(time.Millisecond)

		older := model.NewConversation("owner-a", "a@example.com")
		older.CreatedAt = now.Add(-2 * time.Minute)
		newer := model.NewConversation("owner-a", "a@example.com")
		newer.CreatedAt = now
		other := model.NewConversation("owner-b", "b@example.com")

		gt.NoError(t, repo.Conversation().Create(ctx, older)).Required()
		gt.NoError(t, repo.Conversation().Create(ctx, newer)).Required()
		gt.NoError(t, repo.Conversation().Create(ctx, other)).Required()

		got, err := repo.Conversation().ListByOwner(ctx, "owner-a")
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(2).Required()
		gt.Value(t, got[0].ID).Equal(newer.ID)
		gt.Value(t, got[1].ID).Equal(older.ID)
	})

	t.Run("ListByOwner empty", func(t *testing.T) {
		repo := newRepo(t)

		got, err := repo.Conversation().ListByOwner(ctx, "nobody")
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(0)
	})

	t.Run("UpdateStatus", func(t *testing.T) {
		repo := newRepo(t)
		conv := model.NewConversation("user-1", "user-1@example.com")
		gt.NoError(t, repo.Conversation().Create(ctx, conv)).Required()

		gt.NoError(t, repo.Conversation().UpdateStatus(ctx, conv.ID, types.ConversationStatusClosed)).Required()

		got, err := repo.Conversation().Get(ctx, conv.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.ConversationStatusClosed)
		gt.B(t, got.IsClosed()).True()
	})

	t.Run("UpdateStatus not found", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.Conversation().UpdateStatus(ctx, types.NewConversationID(), types.ConversationStatusClosed)
		gt.Error(t, err)
		gt.B(t, errors.Is(err, interfaces.ErrConversationNotFound)).True()
	})

	t.Run("EnsureSession binds once", func(t *testing.T) {
		repo := newRepo(t)
		conv := model.NewConversation("user-1", "user-1@example.com")
		gt.NoError(t, repo.Conversation().Create(ctx, conv)).Required()

		first := types.NewSessionID()
		got, created, err := repo.Conversation().EnsureSession(ctx, conv.ID, first)
		gt.NoError(t, err).Required()
		gt.B(t, created).True()
		gt.Value(t, got).Equal(first)

		second := types.NewSessionID()
		got, created, err = repo.Conversation().EnsureSession(ctx, conv.ID, second)
		gt.NoError(t, err).Required()
		gt.B(t, created).False()
		gt.Value(t, got).Equal(first)

		stored, err := repo.Conversation().Get(ctx, conv.ID)
		gt.NoError(t, err).Required()
		gt.B(t, stored.HasActiveSession()).True()
		gt.Value(t, stored.SessionID).Equal(first)
	})

	t.Run("EnsureSession not found", func(t *testing.T) {
		repo := newRepo(t)

		_, _, err := repo.Conversation().EnsureSession(ctx, types.NewConversationID(), types.NewSessionID())
		gt.Error(t, err)
		gt.B(t, errors.Is(err, interfaces.ErrConversationNotFound)).True()
	})

	t.Run("Delete cascades to messages and memories", func(t *testing.T) {
		repo := newRepo(t)
		conv := model.NewConversation("user-1", "user-1@example.com")
		gt.NoError(t, repo.Conversation().Create(ctx, conv)).Required()

		msg := model.NewMessage(conv.ID, "hello", types.OriginUser)
		gt.NoError(t, repo.Message().Append(ctx, msg)).Required()
		mem := model.NewMemory(conv.ID, "prefers email")
		gt.NoError(t, repo.Memory().Create(ctx, mem)).Required()

		gt.NoError(t, repo.Conversation().Delete(ctx, conv.ID)).Required()

		_, err := repo.Conversation().Get(ctx, conv.ID)
		gt.B(t, errors.Is(err, interfaces.ErrConversationNotFound)).True()

		msgs, err := repo.Message().ListByConversation(ctx, conv.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(0)

		mems, err := repo.Memory().List(ctx, conv.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, mems).Length(0)
	})

	t.Run("Delete not found", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.Conversation().Delete(ctx, types.NewConversationID())
		gt.Error(t, err)
		gt.B(t, errors.Is(err, interfaces.ErrConversationNotFound)).True()
	})
}

func TestConversationRepository_Memory(t *testing.T) {
	runConversationRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestConversationRepository_Firestore(t *testing.T) {
	runConversationRepositoryTest(t, newFirestoreRepository)
}
