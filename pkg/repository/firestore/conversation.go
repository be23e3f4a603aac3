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

type conversationDoc struct {
	ID            string    `firestore:"id"`
	OwnerID       string    `firestore:"owner_id"`
	OwnerAddress  string    `firestore:"owner_address"`
	Status        string    `firestore:"status"`
	SessionID     string    `firestore:"session_id"`
	SessionActive bool      `firestore:"session_active"`
	CreatedAt     time.Time `firestore:"created_at"`
	UpdatedAt     time.Time `firestore:"updated_at"`
}

func conversationToDoc(conv *model.Conversation) *conversationDoc {
	return &conversationDoc{
		ID:            conv.ID.String(),
		OwnerID:       conv.OwnerID.String(),
		OwnerAddress:  conv.OwnerAddress,
		Status:        conv.Status.String(),
		SessionID:     conv.SessionID.String(),
		SessionActive: conv.SessionActive,
		CreatedAt:     conv.CreatedAt,
		UpdatedAt:     conv.UpdatedAt,
	}
}

func conversationToModel(doc *conversationDoc) *model.Conversation {
	return &model.Conversation{
		ID:            types.ConversationID(doc.ID),
		OwnerID:       types.UserID(doc.OwnerID),
		OwnerAddress:  doc.OwnerAddress,
		Status:        types.ConversationStatus(doc.Status).Normalize(),
		SessionID:     types.SessionID(doc.SessionID),
		SessionActive: doc.SessionActive,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

type conversationRepository struct {
	client           *firestore.Client
	collectionPrefix string

	messages *messageRepository
	memories *memoryRepository
}

func newConversationRepository(client *firestore.Client, messages *messageRepository, memories *memoryRepository) *conversationRepository {
	return &conversationRepository{
		client:   client,
		messages: messages,
		memories: memories,
	}
}

func (r *conversationRepository) conversationsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_conversations"
	}
	return "conversations"
}

func (r *conversationRepository) docRef(id types.ConversationID) *firestore.DocumentRef {
	return r.client.Collection(r.conversationsCollection()).Doc(id.String())
}

func (r *conversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	if _, err := r.docRef(conv.ID).Create(ctx, conversationToDoc(conv)); err != nil {
		return goerr.Wrap(err, "failed to create conversation", goerr.V("id", conv.ID))
	}
	return nil
}

func (r *conversationRepository) Get(ctx context.Context, id types.ConversationID) (*model.Conversation, error) {
	doc, err := r.docRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrConversationNotFound, "conversation not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get conversation", goerr.V("id", id))
	}

	var d conversationDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal conversation", goerr.V("id", id))
	}

	return conversationToModel(&d), nil
}

func (r *conversationRepository) ListByOwner(ctx context.Context, ownerID types.UserID) ([]*model.Conversation, error) {
	iter := r.client.Collection(r.conversationsCollection()).
		Where("owner_id", "==", ownerID.String()).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	conversations := make([]*model.Conversation, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate conversations", goerr.V("ownerID", ownerID))
		}

		var d conversationDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal conversation")
		}

		conversations = append(conversations, conversationToModel(&d))
	}

	return conversations, nil
}

func (r *conversationRepository) UpdateStatus(ctx context.Context, id types.ConversationID, st types.ConversationStatus) error {
	_, err := r.docRef(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: st.String()},
		{Path: "updated_at", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrConversationNotFound, "conversation not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to update conversation status", goerr.V("id", id))
	}
	return nil
}

func (r *conversationRepository) EnsureSession(ctx context.Context, id types.ConversationID, candidate types.SessionID) (types.SessionID, bool, error) {
	docRef := r.docRef(id)

	var sessionID types.SessionID
	var created bool

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrConversationNotFound, "conversation not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get conversation in transaction", goerr.V("id", id))
		}

		var d conversationDoc
		if err := doc.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to unmarshal conversation", goerr.V("id", id))
		}

		if d.SessionActive && d.SessionID != "" {
			sessionID = types.SessionID(d.SessionID)
			created = false
			return nil
		}

		if err := tx.Update(docRef, []firestore.Update{
			{Path: "session_id", Value: candidate.String()},
			{Path: "session_active", Value: true},
			{Path: "updated_at", Value: time.Now().UTC()},
		}); err != nil {
			return goerr.Wrap(err, "failed to bind session", goerr.V("id", id))
		}

		sessionID = candidate
		created = true
		return nil
	})
	if err != nil {
		return "", false, err
	}

	return sessionID, created, nil
}

func (r *conversationRepository) Delete(ctx context.Context, id types.ConversationID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}

	if err := r.messages.deleteByConversation(ctx, id); err != nil {
		return err
	}
	if err := r.memories.deleteByConversation(ctx, id); err != nil {
		return err
	}

	if _, err := r.docRef(id).Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete conversation", goerr.V("id", id))
	}
	return nil
}
