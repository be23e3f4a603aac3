package oracle

import (
	"context"

	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// Service makes the reasoning decisions that drive the relay: how to route
// user messages, how to answer the live agent, what to remember, and how to
// phrase direct replies. Implementations wrap an LLM; callers treat every
// method as fallible and substitute canned fallbacks on error.
type Service interface {
	// DecideRouting classifies an inbound user message: respond directly,
	// forward to the live agent, or both.
	DecideRouting(ctx context.Context, input *RoutingInput) (*model.RoutingDecision, error)

	// DecideExternalResponse decides how to handle a live agent message:
	// answer on the user's behalf, surface a question to the user, or both.
	DecideExternalResponse(ctx context.Context, input *ExternalResponseInput) (*model.ExternalResponseDecision, error)

	// ExtractFact distills a user message into one durable factual statement.
	// The empty string means the message carried nothing worth keeping.
	ExtractFact(ctx context.Context, input *FactInput) (string, error)

	// ComposeUserReply generates a direct answer to the user. The underlying
	// agent may call session tools to inspect or open the live agent session
	// for this conversation.
	ComposeUserReply(ctx context.Context, input *ReplyInput) (string, error)
}

// RoutingInput carries one user message plus the context the router needs.
// History is the recent transcript in chronological order.
type RoutingInput struct {
	Text          string
	History       []*model.Message
	SessionActive bool
}

// ExternalResponseInput carries one live agent message plus conversation
// context. UserContext is free-form background about the user, typically
// built from stored memories.
type ExternalResponseInput struct {
	AgentText   string
	History     []*model.Message
	UserContext string
}

// FactInput carries one user message plus recent transcript for context.
type FactInput struct {
	Text    string
	History []*model.Message
}

// ReplyInput carries everything needed to compose a direct reply to the user.
type ReplyInput struct {
	ConversationID types.ConversationID
	Text           string
	History        []*model.Message
	Memories       []*model.Memory
}
