package interfaces

import (
	"context"

	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// EventRepository defines the interface for webhook delivery deduplication
type EventRepository interface {
	// MarkProcessed records the external event ID and reports whether this
	// call was the first to do so. Redelivered events return false.
	MarkProcessed(ctx context.Context, id types.ExternalEventID) (bool, error)
}
