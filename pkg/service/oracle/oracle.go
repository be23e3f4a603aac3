package oracle

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/relaydesk/relaydesk/pkg/agent/tool/core"
	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
)

// client implements Service interface
type client struct {
	llmClient gollem.LLMClient
	repo      interfaces.Repository
}

// Option is a functional option for client configuration
type Option func(*client)

// New creates a decision service backed by the provided LLM client. The
// repository backs the session tools the reply agent can call.
func New(llmClient gollem.LLMClient, repo interfaces.Repository, opts ...Option) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}
	if repo == nil {
		return nil, goerr.New("repository is required")
	}

	c := &client{
		llmClient: llmClient,
		repo:      repo,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// DecideRouting classifies an inbound user message into a routing decision
func (c *client) DecideRouting(ctx context.Context, input *RoutingInput) (*model.RoutingDecision, error) {
	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildRoutingSchema()),
		gollem.WithSessionSystemPrompt(buildRoutingSystemPrompt(input.SessionActive)),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create routing session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildRoutingUserPrompt(input)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate routing decision")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("routing decision returned no content")
	}

	var decision model.RoutingDecision
	if err := json.Unmarshal([]byte(resp.Texts[0]), &decision); err != nil {
		return nil, goerr.Wrap(err, "failed to parse routing decision", goerr.V("response", resp.Texts[0]))
	}

	return &decision, nil
}

// DecideExternalResponse decides how to handle a message from the live agent
func (c *client) DecideExternalResponse(ctx context.Context, input *ExternalResponseInput) (*model.ExternalResponseDecision, error) {
	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(buildExternalResponseSchema()),
		gollem.WithSessionSystemPrompt(buildExternalSystemPrompt()),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create external response session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildExternalUserPrompt(input)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate external response decision")
	}
	if len(resp.Texts) == 0 {
		return nil, goerr.New("external response decision returned no content")
	}

	var decision model.ExternalResponseDecision
	if err := json.Unmarshal([]byte(resp.Texts[0]), &decision); err != nil {
		return nil, goerr.Wrap(err, "failed to parse external response decision", goerr.V("response", resp.Texts[0]))
	}

	return &decision, nil
}

// ExtractFact distills a user message into one durable factual statement.
// It returns the empty string when the message carries nothing worth keeping.
func (c *client) ExtractFact(ctx context.Context, input *FactInput) (string, error) {
	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(buildFactSystemPrompt()),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create fact extraction session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildFactUserPrompt(input)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to extract fact")
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("fact extraction returned no content")
	}

	fact := strings.TrimSpace(resp.Texts[0])
	if fact == "" || fact == noFactSentinel {
		return "", nil
	}
	return fact, nil
}

// ComposeUserReply generates a direct answer to the user with an agent that
// can inspect or open the live agent session for this conversation.
func (c *client) ComposeUserReply(ctx context.Context, input *ReplyInput) (string, error) {
	agent := gollem.New(c.llmClient,
		gollem.WithSystemPrompt(buildReplySystemPrompt(input.Memories)),
		gollem.WithTools(core.New(c.repo, input.ConversationID)...),
	)

	resp, err := agent.Execute(ctx, gollem.Text(buildReplyUserPrompt(input)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to compose user reply",
			goerr.V("conversationID", input.ConversationID),
		)
	}
	if len(resp.Texts) == 0 {
		return "", goerr.New("reply composition returned no content")
	}

	return strings.TrimSpace(strings.Join(resp.Texts, "\n")), nil
}

// buildRoutingSchema creates the JSON schema for routing decisions
func buildRoutingSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "MessageRoutingDecision",
		Description: "Routing decision for one inbound user message",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"respond_to_user": {
				Type:        gollem.TypeBoolean,
				Description: "Whether to respond directly to the user",
			},
			"forward_to_external": {
				Type:        gollem.TypeBoolean,
				Description: "Whether to forward a message to the live agent",
			},
			"user_text": {
				Type:        gollem.TypeString,
				Description: "Response to send to the user if respond_to_user is true",
			},
			"external_text": {
				Type:        gollem.TypeString,
				Description: "Message to forward to the live agent if forward_to_external is true, written as the customer",
			},
			"explanation": {
				Type:        gollem.TypeString,
				Description: "Brief explanation of the routing decision",
			},
		},
		Required: []string{"respond_to_user", "forward_to_external", "explanation"},
	}
}

// buildExternalResponseSchema creates the JSON schema for external response decisions
func buildExternalResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "ExternalResponseDecision",
		Description: "Decision on how to handle one live agent message",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"reply_to_external": {
				Type:        gollem.TypeBoolean,
				Description: "Whether to respond directly to the live agent",
			},
			"ask_user": {
				Type:        gollem.TypeBoolean,
				Description: "Whether to ask the user for more information",
			},
			"external_text": {
				Type:        gollem.TypeString,
				Description: "Response to send to the live agent if reply_to_external is true, written as the customer",
			},
			"user_question": {
				Type:        gollem.TypeString,
				Description: "Question to ask the user if ask_user is true",
			},
			"explanation": {
				Type:        gollem.TypeString,
				Description: "Brief explanation of the response decision",
			},
		},
		Required: []string{"reply_to_external", "ask_user", "explanation"},
	}
}
