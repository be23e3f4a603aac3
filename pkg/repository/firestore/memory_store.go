package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type memoryDoc struct {
	ID             string    `firestore:"id"`
	ConversationID string    `firestore:"conversation_id"`
	Content        string    `firestore:"content"`
	CreatedAt      time.Time `firestore:"created_at"`
	UpdatedAt      time.Time `firestore:"updated_at"`
}

func memoryToDoc(m *model.Memory) *memoryDoc {
	return &memoryDoc{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func memoryToModel(doc *memoryDoc) *model.Memory {
	return &model.Memory{
		ID:             types.MemoryID(doc.ID),
		ConversationID: types.ConversationID(doc.ConversationID),
		Content:        doc.Content,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

type memoryRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newMemoryRepository(client *firestore.Client) *memoryRepository {
	return &memoryRepository{client: client}
}

func (r *memoryRepository) conversationsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_conversations"
	}
	return "conversations"
}

// memoriesCollection returns the subcollection path:
// conversations/{conversationID}/memories
func (r *memoryRepository) memoriesCollection(conversationID types.ConversationID) *firestore.CollectionRef {
	return r.client.Collection(r.conversationsCollection()).
		Doc(conversationID.String()).
		Collection("memories")
}

func (r *memoryRepository) Create(ctx context.Context, mem *model.Memory) error {
	docRef := r.memoriesCollection(mem.ConversationID).Doc(mem.ID.String())
	if _, err := docRef.Set(ctx, memoryToDoc(mem)); err != nil {
		return goerr.Wrap(err, "failed to create memory", goerr.V("memoryID", mem.ID))
	}
	return nil
}

func (r *memoryRepository) List(ctx context.Context, conversationID types.ConversationID) ([]*model.Memory, error) {
	iter := r.memoriesCollection(conversationID).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	memories := make([]*model.Memory, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memories", goerr.V("conversationID", conversationID))
		}

		var d memoryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory")
		}

		memories = append(memories, memoryToModel(&d))
	}

	return memories, nil
}

func (r *memoryRepository) Delete(ctx context.Context, conversationID types.ConversationID, memoryID types.MemoryID) error {
	docRef := r.memoriesCollection(conversationID).Doc(memoryID.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrMemoryNotFound, "memory not found", goerr.V("memoryID", memoryID))
		}
		return goerr.Wrap(err, "failed to get memory", goerr.V("memoryID", memoryID))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete memory", goerr.V("memoryID", memoryID))
	}

	return nil
}

func (r *memoryRepository) deleteByConversation(ctx context.Context, conversationID types.ConversationID) error {
	iter := r.memoriesCollection(conversationID).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate memories for delete", goerr.V("conversationID", conversationID))
		}

		if _, err := doc.Ref.Delete(ctx); err != nil {
			return goerr.Wrap(err, "failed to delete memory", goerr.V("memoryID", doc.Ref.ID))
		}
	}

	return nil
}
