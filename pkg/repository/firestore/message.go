package firestore

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
)

type messageDoc struct {
	ID                string    `firestore:"id"`
	ConversationID    string    `firestore:"conversation_id"`
	Text              string    `firestore:"text"`
	Origin            string    `firestore:"origin"`
	Markdown          bool      `firestore:"markdown"`
	Delivered         bool      `firestore:"delivered"`
	ExternalMessageID string    `firestore:"external_message_id"`
	CreatedAt         time.Time `firestore:"created_at"`
}

func messageToDoc(msg *model.Message) *messageDoc {
	return &messageDoc{
		ID:                msg.ID.String(),
		ConversationID:    msg.ConversationID.String(),
		Text:              msg.Text,
		Origin:            msg.Origin.String(),
		Markdown:          msg.Markdown,
		Delivered:         msg.Delivered,
		ExternalMessageID: msg.ExternalMessageID,
		CreatedAt:         msg.CreatedAt,
	}
}

func messageToModel(doc *messageDoc) *model.Message {
	return &model.Message{
		ID:                types.MessageID(doc.ID),
		ConversationID:    types.ConversationID(doc.ConversationID),
		Text:              doc.Text,
		Origin:            types.MessageOrigin(doc.Origin),
		Markdown:          doc.Markdown,
		Delivered:         doc.Delivered,
		ExternalMessageID: doc.ExternalMessageID,
		CreatedAt:         doc.CreatedAt,
	}
}

type messageRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newMessageRepository(client *firestore.Client) *messageRepository {
	return &messageRepository{client: client}
}

func (r *messageRepository) messagesCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_messages"
	}
	return "messages"
}

func (r *messageRepository) Append(ctx context.Context, msg *model.Message) error {
	docRef := r.client.Collection(r.messagesCollection()).Doc(msg.ID.String())
	if _, err := docRef.Set(ctx, messageToDoc(msg)); err != nil {
		return goerr.Wrap(err, "failed to append message", goerr.V("messageID", msg.ID))
	}
	return nil
}

// ListByConversation returns the transcript ordered by created_at. Firestore
// appends the document name as the final sort key and message IDs are
// time-ordered UUIDs, so same-instant messages come back in a stable order.
func (r *messageRepository) ListByConversation(ctx context.Context, id types.ConversationID) ([]*model.Message, error) {
	iter := r.client.Collection(r.messagesCollection()).
		Where("conversation_id", "==", id.String()).
		OrderBy("created_at", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	messages := make([]*model.Message, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate messages", goerr.V("conversationID", id))
		}

		var d messageDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal message")
		}

		messages = append(messages, messageToModel(&d))
	}

	return messages, nil
}

func (r *messageRepository) Recent(ctx context.Context, id types.ConversationID, n int) ([]*model.Message, error) {
	if n <= 0 {
		return []*model.Message{}, nil
	}

	iter := r.client.Collection(r.messagesCollection()).
		Where("conversation_id", "==", id.String()).
		OrderBy("created_at", firestore.Desc).
		Limit(n).
		Documents(ctx)
	defer iter.Stop()

	newest := make([]*model.Message, 0, n)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate recent messages", goerr.V("conversationID", id))
		}

		var d messageDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal message")
		}

		newest = append(newest, messageToModel(&d))
	}

	// Flip from newest-first query order back to chronological
	result := make([]*model.Message, len(newest))
	for i, msg := range newest {
		result[len(newest)-1-i] = msg
	}
	return result, nil
}

func (r *messageRepository) LatestPerConversation(ctx context.Context, ids []types.ConversationID) (map[types.ConversationID]*model.Message, error) {
	result := make(map[types.ConversationID]*model.Message, len(ids))
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id // per-iteration copy: required while go.mod targets go < 1.22
		eg.Go(func() error {
			msgs, err := r.Recent(ctx, id, 1)
			if err != nil {
				return err
			}
			if len(msgs) == 0 {
				return nil
			}

			mu.Lock()
			result[id] = msgs[0]
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *messageRepository) deleteByConversation(ctx context.Context, id types.ConversationID) error {
	iter := r.client.Collection(r.messagesCollection()).
		Where("conversation_id", "==", id.String()).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate messages for delete", goerr.V("conversationID", id))
		}

		if _, err := doc.Ref.Delete(ctx); err != nil {
			return goerr.Wrap(err, "failed to delete message", goerr.V("messageID", doc.Ref.ID))
		}
	}

	return nil
}
