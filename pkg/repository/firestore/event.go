package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type processedEventDoc struct {
	ID          string    `firestore:"id"`
	ProcessedAt time.Time `firestore:"processed_at"`
}

type eventRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newEventRepository(client *firestore.Client) *eventRepository {
	return &eventRepository{client: client}
}

func (r *eventRepository) processedEventsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_processed_events"
	}
	return "processed_events"
}

// MarkProcessed claims the event ID with a document create, which fails with
// AlreadyExists when another delivery claimed it first.
func (r *eventRepository) MarkProcessed(ctx context.Context, id types.ExternalEventID) (bool, error) {
	docRef := r.client.Collection(r.processedEventsCollection()).Doc(id.String())

	_, err := docRef.Create(ctx, &processedEventDoc{
		ID:          id.String(),
		ProcessedAt: time.Now().UTC(),
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to mark event processed", goerr.V("eventID", id))
	}

	return true, nil
}
