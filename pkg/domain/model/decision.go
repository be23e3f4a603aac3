package model

import "fmt"

// FallbackUserReply is persisted when the routing decision or the reply
// composition cannot be obtained from the reasoning service.
const FallbackUserReply = "I understand you're looking for help. Let me assist you with that."

// RoutingDecision is the structured outcome of one routing pass over an
// inbound user message. It is ephemeral: decisions are acted on and logged,
// never persisted.
type RoutingDecision struct {
	RespondToUser     bool   `json:"respond_to_user"`
	ForwardToExternal bool   `json:"forward_to_external"`
	UserText          string `json:"user_text"`
	ExternalText      string `json:"external_text"`
	Explanation       string `json:"explanation"`
}

// FallbackRoutingDecision is the safe default when the reasoning service
// fails or returns output that cannot be parsed: answer the user with a
// generic acknowledgment and forward nothing.
func FallbackRoutingDecision() *RoutingDecision {
	return &RoutingDecision{
		RespondToUser: true,
		UserText:      FallbackUserReply,
		Explanation:   "fallback: routing decision unavailable",
	}
}

// ExternalResponseDecision is the structured outcome of one pass over an
// inbound external (live-agent) message: reply to the agent on the user's
// behalf, surface a question to the user, or both.
type ExternalResponseDecision struct {
	ReplyToExternal bool   `json:"reply_to_external"`
	AskUser         bool   `json:"ask_user"`
	ExternalText    string `json:"external_text"`
	UserQuestion    string `json:"user_question"`
	Explanation     string `json:"explanation"`
}

// FallbackExternalResponseDecision is the safe default when the reasoning
// service fails on an external message: hand the agent's text to the user
// and ask how to proceed.
func FallbackExternalResponseDecision(agentText string) *ExternalResponseDecision {
	return &ExternalResponseDecision{
		AskUser:      true,
		UserQuestion: fmt.Sprintf("The agent says: %s\n\nHow would you like me to respond?", agentText),
		Explanation:  "fallback: external response decision unavailable",
	}
}
