package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/relaydesk/relaydesk/pkg/utils/logging"
)

// EnsureSession returns the conversation's external session identifier,
// establishing one if none exists yet. Safe to call concurrently: racing
// callers all receive the same winner and the mapping is written once.
func (uc *UseCases) EnsureSession(ctx context.Context, id types.ConversationID) (types.SessionID, error) {
	sessionID, created, err := uc.repo.Conversation().EnsureSession(ctx, id, types.NewSessionID())
	if err != nil {
		return "", goerr.Wrap(err, "failed to ensure session", goerr.V(ConversationIDKey, id))
	}

	if created {
		logging.From(ctx).Info("external session established",
			ConversationIDKey, id,
			"sessionID", sessionID,
		)
	}
	return sessionID, nil
}
