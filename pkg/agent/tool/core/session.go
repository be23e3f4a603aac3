package core

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/relaydesk/relaydesk/pkg/agent/tool"
	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/relaydesk/relaydesk/pkg/utils/errutil"
)

// Status texts handed back to the model verbatim. The reply agent is
// instructed to relay them, so they are written in user-facing language.
const (
	sessionConnectedMessage    = "This chat is connected to a live agent support session. Your messages will be forwarded to the agent."
	sessionNotConnectedMessage = "This chat is not currently connected to a live agent. Would you like me to connect you with a live agent?"
	sessionOpenedMessage       = "You've been connected with a live agent support session. Your messages will be forwarded to the agent who will respond shortly."
	sessionOpenFailedMessage   = "I wasn't able to connect you with a live agent at this time. Please try again later or let me help you with your question."
)

// sessionStatusTool reports whether the conversation currently has a live
// agent session.
type sessionStatusTool struct {
	repo           interfaces.Repository
	conversationID types.ConversationID
}

func (t *sessionStatusTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "core__session_status",
		Description: "Check whether this conversation is connected to a live agent support session",
		Parameters:  map[string]*gollem.Parameter{},
	}
}

func (t *sessionStatusTool) Run(ctx context.Context, _ map[string]any) (map[string]any, error) {
	tool.Update(ctx, "Checking live agent session...")
	conv, err := t.repo.Conversation().Get(ctx, t.conversationID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get conversation",
			goerr.V("conversationID", t.conversationID),
		)
	}

	if conv.HasActiveSession() {
		return map[string]any{
			"connected":  true,
			"session_id": conv.SessionID.String(),
			"message":    sessionConnectedMessage,
		}, nil
	}
	return map[string]any{
		"connected": false,
		"message":   sessionNotConnectedMessage,
	}, nil
}

// openSessionTool establishes a live agent session for the conversation.
// Opening is idempotent: when a session already exists, the existing mapping
// is reported instead of a new one being created.
type openSessionTool struct {
	repo           interfaces.Repository
	conversationID types.ConversationID
}

func (t *openSessionTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "core__open_session",
		Description: "Connect this conversation to a live agent support session",
		Parameters:  map[string]*gollem.Parameter{},
	}
}

func (t *openSessionTool) Run(ctx context.Context, _ map[string]any) (map[string]any, error) {
	tool.Update(ctx, "Connecting to a live agent...")
	sessionID, created, err := t.repo.Conversation().EnsureSession(ctx, t.conversationID, types.NewSessionID())
	if err != nil {
		// The failure text goes back to the model so the user gets a usable
		// answer; the underlying error only reaches the log.
		_ = errutil.Handle(ctx, err, "failed to open live agent session")
		return map[string]any{
			"connected": false,
			"message":   sessionOpenFailedMessage,
		}, nil
	}

	return map[string]any{
		"connected":  true,
		"created":    created,
		"session_id": sessionID.String(),
		"message":    sessionOpenedMessage,
	}, nil
}
