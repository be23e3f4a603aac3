package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/model/auth"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/relaydesk/relaydesk/pkg/repository/memory"
	"github.com/relaydesk/relaydesk/pkg/service/messenger"
	"github.com/relaydesk/relaydesk/pkg/service/oracle"
	"github.com/relaydesk/relaydesk/pkg/usecase"
)

// mockOracle is a stub implementation of oracle.Service. Unset functions fall
// back to neutral defaults: respond with a canned line, ask the user, extract
// nothing.
type mockOracle struct {
	decideRoutingFn  func(ctx context.Context, input *oracle.RoutingInput) (*model.RoutingDecision, error)
	decideExternalFn func(ctx context.Context, input *oracle.ExternalResponseInput) (*model.ExternalResponseDecision, error)
	extractFactFn    func(ctx context.Context, input *oracle.FactInput) (string, error)
	composeReplyFn   func(ctx context.Context, input *oracle.ReplyInput) (string, error)
}

func (m *mockOracle) DecideRouting(ctx context.Context, input *oracle.RoutingInput) (*model.RoutingDecision, error) {
	if m.decideRoutingFn != nil {
		return m.decideRoutingFn(ctx, input)
	}
	return &model.RoutingDecision{RespondToUser: true, UserText: "Understood."}, nil
}

func (m *mockOracle) DecideExternalResponse(ctx context.Context, input *oracle.ExternalResponseInput) (*model.ExternalResponseDecision, error) {
	if m.decideExternalFn != nil {
		return m.decideExternalFn(ctx, input)
	}
	return &model.ExternalResponseDecision{AskUser: true, UserQuestion: "Agent asked: " + input.AgentText}, nil
}

func (m *mockOracle) ExtractFact(ctx context.Context, input *oracle.FactInput) (string, error) {
	if m.extractFactFn != nil {
		return m.extractFactFn(ctx, input)
	}
	return "", nil
}

func (m *mockOracle) ComposeUserReply(ctx context.Context, input *oracle.ReplyInput) (string, error) {
	if m.composeReplyFn != nil {
		return m.composeReplyFn(ctx, input)
	}
	return "How can I help?", nil
}

// mockMessenger records every send so tests can assert delivery counts and
// addressing
type mockMessenger struct {
	mu     sync.Mutex
	sendFn func(ctx context.Context, input *messenger.SendInput) (*messenger.SendResult, error)
	calls  []*messenger.SendInput
}

func (m *mockMessenger) SendMessage(ctx context.Context, input *messenger.SendInput) (*messenger.SendResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, input)
	m.mu.Unlock()

	if m.sendFn != nil {
		return m.sendFn(ctx, input)
	}
	return &messenger.SendResult{MessageID: "vendor-msg-1"}, nil
}

func (m *mockMessenger) sent() []*messenger.SendInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*messenger.SendInput(nil), m.calls...)
}

func testUser() *auth.User {
	return &auth.User{
		ID:      types.UserID("u-alice"),
		Name:    "Alice",
		Address: "alice@example.com",
	}
}

func otherUser() *auth.User {
	return &auth.User{
		ID:      types.UserID("u-mallory"),
		Name:    "Mallory",
		Address: "mallory@example.com",
	}
}

// waitForMemories polls until the conversation has at least n memories or the
// deadline passes. Needed because fact extraction runs in the background.
func waitForMemories(t *testing.T, repo interfaces.Repository, id types.ConversationID, n int) []*model.Memory {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		memories, err := repo.Memory().List(context.Background(), id)
		gt.NoError(t, err).Required()
		if len(memories) >= n {
			return memories
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d memories", n)
	return nil
}

func TestNew(t *testing.T) {
	t.Run("works without optional services", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)
		ctx := context.Background()

		conv, err := uc.CreateConversation(ctx, testUser())
		gt.NoError(t, err).Required()

		// No oracle, no messenger, no hub: the message flow still works and
		// falls back to the canned acknowledgment.
		userMsg, err := uc.HandleUserMessage(ctx, conv.ID, "hello", testUser().Address)
		gt.NoError(t, err).Required()
		gt.Value(t, userMsg).NotNil()

		msgs, err := repo.Message().ListByConversation(ctx, conv.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(2).Required()
		gt.Value(t, msgs[1].Text).Equal(model.FallbackUserReply)
	})
}
