package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/relaydesk/relaydesk/pkg/service/oracle"
	"github.com/relaydesk/relaydesk/pkg/utils/errutil"
	"github.com/relaydesk/relaydesk/pkg/utils/logging"
)

// ExternalEventStatus classifies what the relay did with a vendor event
type ExternalEventStatus string

const (
	// EventStatusProcessed means the agent message was recorded and acted on.
	EventStatusProcessed ExternalEventStatus = "processed"
	// EventStatusIgnored means the event carried nothing to relay (receipts,
	// typing indicators, echoes of our own sends).
	EventStatusIgnored ExternalEventStatus = "ignored"
	// EventStatusDuplicate means the event was already handled by an earlier
	// delivery.
	EventStatusDuplicate ExternalEventStatus = "duplicate"
	// EventStatusClosed means the target conversation no longer accepts
	// messages.
	EventStatusClosed ExternalEventStatus = "closed"
)

// ExternalEventResult reports the outcome of one webhook event
type ExternalEventResult struct {
	Status         ExternalEventStatus
	ConversationID types.ConversationID
}

// HandleExternalEvent relays one vendor webhook event back into its
// conversation. The event's recipient address carries the conversation tag,
// which is the only correlation between vendor traffic and local state.
//
// Guards run before any write: address decode, conversation lookup, ownership,
// session mapping, then status. Redelivered events are absorbed by the event
// ledger. After the agent message is persisted, the response branches (answer
// the agent, ask the user) are each best-effort and independent.
func (uc *UseCases) HandleExternalEvent(ctx context.Context, event *model.ExternalEvent) (*ExternalEventResult, error) {
	logger := logging.From(ctx)

	if !event.IsAgentText() {
		logger.Debug("ignoring non-agent event",
			EventIDKey, event.EventID,
			"type", event.Type,
			"direction", event.Direction,
		)
		return &ExternalEventResult{Status: EventStatusIgnored}, nil
	}

	baseAddr, conversationID, err := model.DecodeAddress(event.ToAddress)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode recipient address",
			goerr.V(EventIDKey, event.EventID),
			goerr.V("address", event.ToAddress),
		)
	}

	conv, err := uc.repo.Conversation().Get(ctx, conversationID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load conversation for event",
			goerr.V(EventIDKey, event.EventID),
			goerr.V(ConversationIDKey, conversationID),
		)
	}

	if conv.OwnerAddress != baseAddr {
		logger.Warn("event address does not match conversation owner",
			EventIDKey, event.EventID,
			ConversationIDKey, conversationID,
			"eventAddress", baseAddr,
		)
		return nil, goerr.Wrap(ErrOwnershipMismatch, "rejecting event",
			goerr.V(EventIDKey, event.EventID),
			goerr.V(ConversationIDKey, conversationID),
		)
	}

	if !conv.HasActiveSession() {
		return nil, goerr.Wrap(ErrNoActiveSession, "no session to correlate event with",
			goerr.V(EventIDKey, event.EventID),
			goerr.V(ConversationIDKey, conversationID),
		)
	}

	if conv.IsClosed() {
		logger.Info("conversation is closed, dropping agent message",
			EventIDKey, event.EventID,
			ConversationIDKey, conversationID,
		)
		return &ExternalEventResult{Status: EventStatusClosed, ConversationID: conversationID}, nil
	}

	first, err := uc.repo.Event().MarkProcessed(ctx, event.EventID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to record event in ledger",
			goerr.V(EventIDKey, event.EventID),
			goerr.V(ConversationIDKey, conversationID),
		)
	}
	if !first {
		logger.Info("duplicate event delivery, skipping",
			EventIDKey, event.EventID,
			ConversationIDKey, conversationID,
		)
		return &ExternalEventResult{Status: EventStatusDuplicate, ConversationID: conversationID}, nil
	}

	agentMsg := model.NewExternalMessage(conversationID, event.Text, event.EventID)
	if err := uc.repo.Message().Append(ctx, agentMsg); err != nil {
		return nil, goerr.Wrap(err, "failed to persist agent message",
			goerr.V(EventIDKey, event.EventID),
			goerr.V(ConversationIDKey, conversationID),
		)
	}
	uc.publish(ctx, agentMsg, event.QuickReplies)

	decision := uc.decideExternalResponse(ctx, conv, event.Text)
	logger.Info("external response decision",
		ConversationIDKey, conversationID,
		"replyToExternal", decision.ReplyToExternal,
		"askUser", decision.AskUser,
		"explanation", decision.Explanation,
	)

	if decision.ReplyToExternal && decision.ExternalText != "" {
		if err := uc.forwardToExternal(ctx, conv, conv.OwnerAddress, decision.ExternalText); err != nil {
			errutil.Handle(ctx, err, "failed to answer live agent")
		}
	}

	if decision.AskUser && decision.UserQuestion != "" {
		question := model.NewMessage(conversationID, decision.UserQuestion, types.OriginSystem)
		if err := uc.repo.Message().Append(ctx, question); err != nil {
			errutil.Handle(ctx, err, "failed to persist question for user")
		} else {
			uc.publish(ctx, question, nil)
		}
	}

	return &ExternalEventResult{Status: EventStatusProcessed, ConversationID: conversationID}, nil
}

// decideExternalResponse asks the oracle how to handle an agent message,
// substituting the safe fallback when the oracle is missing or fails. Stored
// memories are rendered into the user context so the oracle can answer
// factual questions (account IDs, emails) without asking the user again.
func (uc *UseCases) decideExternalResponse(ctx context.Context, conv *model.Conversation, agentText string) *model.ExternalResponseDecision {
	if uc.oracle == nil {
		return model.FallbackExternalResponseDecision(agentText)
	}

	history, err := uc.repo.Message().Recent(ctx, conv.ID, transcriptWindow)
	if err != nil {
		errutil.Handle(ctx, err, "failed to load transcript for external decision")
		history = nil
	}

	decision, err := uc.oracle.DecideExternalResponse(ctx, &oracle.ExternalResponseInput{
		AgentText:   agentText,
		History:     history,
		UserContext: uc.memoryContext(ctx, conv.ID),
	})
	if err != nil {
		errutil.Handle(ctx, err, "external response decision failed, using fallback")
		return model.FallbackExternalResponseDecision(agentText)
	}
	return decision
}

// memoryContext renders stored memories as one fact per line for prompt
// injection. Empty when the conversation has no memories.
func (uc *UseCases) memoryContext(ctx context.Context, id types.ConversationID) string {
	memories, err := uc.repo.Memory().List(ctx, id)
	if err != nil {
		errutil.Handle(ctx, err, "failed to load memories for context")
		return ""
	}
	if len(memories) == 0 {
		return ""
	}

	facts := make([]string, 0, len(memories))
	for _, m := range memories {
		facts = append(facts, "- "+m.Content)
	}
	return strings.Join(facts, "\n")
}
