package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/model/auth"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/relaydesk/relaydesk/pkg/service/messenger"
	"github.com/relaydesk/relaydesk/pkg/service/oracle"
	"github.com/relaydesk/relaydesk/pkg/utils/async"
	"github.com/relaydesk/relaydesk/pkg/utils/errutil"
	"github.com/relaydesk/relaydesk/pkg/utils/logging"
)

// transcriptWindow is how many recent messages are replayed into decision
// prompts. Older context reaches the oracle through durable memories instead.
const transcriptWindow = 5

// ListMessages returns the full conversation transcript in chronological
// order after checking ownership
func (uc *UseCases) ListMessages(ctx context.Context, user *auth.User, id types.ConversationID) ([]*model.Message, error) {
	if _, err := uc.getOwnedConversation(ctx, user, id); err != nil {
		return nil, err
	}

	msgs, err := uc.repo.Message().ListByConversation(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list messages", goerr.V(ConversationIDKey, id))
	}
	return msgs, nil
}

// HandleUserMessage routes one inbound user message: persist it, broadcast
// it, and act on the oracle's routing decision by forwarding to the live
// agent, replying to the user, or both. It returns the persisted user
// message, or (nil, nil) when the conversation is closed.
//
// Downstream failures never surface to the caller: a failed forward falls
// back to a direct reply, a failed decision falls back to the canned
// acknowledgment. At most two additional messages are written per call.
func (uc *UseCases) HandleUserMessage(ctx context.Context, conversationID types.ConversationID, text string, ownerAddress string) (*model.Message, error) {
	logger := logging.From(ctx)

	conv, err := uc.repo.Conversation().Get(ctx, conversationID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load conversation", goerr.V(ConversationIDKey, conversationID))
	}
	if conv.IsClosed() {
		logger.Info("conversation is closed, ignoring user message", ConversationIDKey, conversationID)
		return nil, nil
	}

	userMsg := model.NewMessage(conversationID, text, types.OriginUser)
	if err := uc.repo.Message().Append(ctx, userMsg); err != nil {
		return nil, goerr.Wrap(err, "failed to persist user message", goerr.V(ConversationIDKey, conversationID))
	}
	uc.publish(ctx, userMsg, nil)

	history, err := uc.repo.Message().Recent(ctx, conversationID, transcriptWindow)
	if err != nil {
		errutil.Handle(ctx, err, "failed to load recent transcript")
		history = []*model.Message{userMsg}
	}

	uc.extractMemory(ctx, conversationID, text, history)

	decision := uc.decideRouting(ctx, text, history, conv.HasActiveSession())
	logger.Info("routing decision",
		ConversationIDKey, conversationID,
		"respondToUser", decision.RespondToUser,
		"forwardToExternal", decision.ForwardToExternal,
		"explanation", decision.Explanation,
	)

	if decision.ForwardToExternal && decision.ExternalText != "" {
		if err := uc.forwardToExternal(ctx, conv, ownerAddress, decision.ExternalText); err != nil {
			errutil.Handle(ctx, err, "failed to forward message to live agent")
			decision.RespondToUser = true
		}
	} else if decision.ForwardToExternal {
		logger.Warn("routing decision wants to forward but has no external text", ConversationIDKey, conversationID)
	}

	if !decision.RespondToUser {
		return userMsg, nil
	}

	replyText := decision.UserText
	if replyText == "" {
		replyText = uc.composeUserReply(ctx, conversationID, text, history)
	}

	// The reply is discarded when the conversation was closed while the
	// decision was in flight.
	latest, err := uc.repo.Conversation().Get(ctx, conversationID)
	if err != nil {
		errutil.Handle(ctx, err, "failed to re-check conversation status")
		return userMsg, nil
	}
	if latest.IsClosed() {
		logger.Info("conversation closed during processing, discarding reply", ConversationIDKey, conversationID)
		return userMsg, nil
	}

	reply := model.NewMessage(conversationID, replyText, types.OriginSystem)
	if err := uc.repo.Message().Append(ctx, reply); err != nil {
		errutil.Handle(ctx, err, "failed to persist user reply")
		return userMsg, nil
	}
	uc.publish(ctx, reply, nil)

	return userMsg, nil
}

// decideRouting asks the oracle how to route a user message, substituting
// the safe fallback when the oracle is missing or fails
func (uc *UseCases) decideRouting(ctx context.Context, text string, history []*model.Message, sessionActive bool) *model.RoutingDecision {
	if uc.oracle == nil {
		return model.FallbackRoutingDecision()
	}

	decision, err := uc.oracle.DecideRouting(ctx, &oracle.RoutingInput{
		Text:          text,
		History:       history,
		SessionActive: sessionActive,
	})
	if err != nil {
		errutil.Handle(ctx, err, "routing decision failed, using fallback")
		return model.FallbackRoutingDecision()
	}
	return decision
}

// composeUserReply generates a direct reply when the routing decision asked
// for one without supplying the text. The oracle's reply agent may consult
// or open the live agent session through its tools. Failures degrade to the
// canned acknowledgment.
func (uc *UseCases) composeUserReply(ctx context.Context, conversationID types.ConversationID, text string, history []*model.Message) string {
	if uc.oracle == nil {
		return model.FallbackUserReply
	}

	memories, err := uc.repo.Memory().List(ctx, conversationID)
	if err != nil {
		errutil.Handle(ctx, err, "failed to load memories for reply")
		memories = nil
	}

	reply, err := uc.oracle.ComposeUserReply(ctx, &oracle.ReplyInput{
		ConversationID: conversationID,
		Text:           text,
		History:        history,
		Memories:       memories,
	})
	if err != nil || reply == "" {
		errutil.Handle(ctx, err, "failed to compose user reply, using fallback")
		return model.FallbackUserReply
	}
	return reply
}

// forwardToExternal delivers text to the live agent platform and records the
// forwarded message in the transcript. The session mapping is created lazily
// on the first forward; the sender address is the conversation's tagged
// address so vendor replies can be correlated back.
func (uc *UseCases) forwardToExternal(ctx context.Context, conv *model.Conversation, ownerAddress, text string) error {
	if uc.messenger == nil {
		return goerr.New("messenger service is not configured", goerr.V(ConversationIDKey, conv.ID))
	}

	if _, err := uc.EnsureSession(ctx, conv.ID); err != nil {
		return goerr.Wrap(err, "failed to ensure external session", goerr.V(ConversationIDKey, conv.ID))
	}

	from, err := model.EncodeAddress(ownerAddress, conv.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to encode tagged address",
			goerr.V(ConversationIDKey, conv.ID),
			goerr.V("address", ownerAddress),
		)
	}

	result, err := uc.messenger.SendMessage(ctx, &messenger.SendInput{
		From:               from,
		To:                 uc.externalDest,
		Text:               text,
		UseExistingSession: true,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to send message to platform", goerr.V(ConversationIDKey, conv.ID))
	}

	forwarded := model.NewDeliveredMessage(conv.ID, text, result.MessageID)
	if err := uc.repo.Message().Append(ctx, forwarded); err != nil {
		return goerr.Wrap(err, "failed to persist forwarded message", goerr.V(ConversationIDKey, conv.ID))
	}
	uc.publish(ctx, forwarded, nil)

	logging.From(ctx).Info("message forwarded to live agent",
		ConversationIDKey, conv.ID,
		"externalMessageID", result.MessageID,
	)
	return nil
}

// extractMemory distills the user message into a durable fact in the
// background. Extraction is best-effort: failures are logged and never
// affect message handling.
func (uc *UseCases) extractMemory(ctx context.Context, conversationID types.ConversationID, text string, history []*model.Message) {
	if uc.oracle == nil {
		return
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		fact, err := uc.oracle.ExtractFact(ctx, &oracle.FactInput{Text: text, History: history})
		if err != nil {
			return goerr.Wrap(err, "failed to extract memory", goerr.V(ConversationIDKey, conversationID))
		}
		if fact == "" {
			return nil
		}

		mem := model.NewMemory(conversationID, fact)
		if err := uc.repo.Memory().Create(ctx, mem); err != nil {
			return goerr.Wrap(err, "failed to save extracted memory", goerr.V(ConversationIDKey, conversationID))
		}

		logging.From(ctx).Info("memory extracted",
			ConversationIDKey, conversationID,
			MemoryIDKey, mem.ID,
		)
		return nil
	})
}
