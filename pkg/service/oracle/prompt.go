package oracle

import (
	"fmt"
	"strings"

	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// historyWindow caps how much transcript is replayed into a decision prompt.
// Older context is carried by memories instead of raw transcript.
const historyWindow = 5

// noFactSentinel is the exact answer the model gives when a user message
// contains nothing worth remembering.
const noFactSentinel = "NO_MEMORY"

// buildRoutingSystemPrompt creates the system prompt for routing decisions.
// The session flag changes how end-of-conversation messages are handled.
func buildRoutingSystemPrompt(sessionActive bool) string {
	var sb strings.Builder

	sb.WriteString("You are an intelligent message router for a customer support relay. Your job is to decide how to handle each incoming user message.\n\n")
	sb.WriteString("Context:\n")
	fmt.Fprintf(&sb, "- Live agent session active: %t\n", sessionActive)
	sb.WriteString("- You can respond directly to the user, forward a message to the live agent, or do both\n")
	sb.WriteString("- Forward to the live agent for: complex issues, billing questions, refunds, technical problems requiring human intervention\n")
	sb.WriteString("- Respond directly for: simple questions, general information, FAQs, greetings\n")
	sb.WriteString("- Do both when: starting a live agent conversation (inform the user you are connecting them), or providing immediate help while escalating\n\n")

	sb.WriteString("CRITICAL: When forwarding to the live agent, you must speak AS THE CUSTOMER, not as an agent or intermediary. Write the message exactly as the customer would say it to the live agent. Be direct, natural, and authentic.\n\n")

	sb.WriteString("When the live agent asks for specific information, provide ONLY that information:\n")
	sb.WriteString("- For vendor name: just the vendor name (e.g., \"Amazon\")\n")
	sb.WriteString("- For account ID: just the account ID (e.g., \"12345678\")\n")
	sb.WriteString("- For confirmations: just \"yes\" or \"no\"\n")
	sb.WriteString("- For phone numbers: just the number (e.g., \"555-123-4567\")\n")
	sb.WriteString("- For names: just the name requested\n")
	sb.WriteString("- For any specific detail: provide only that detail without extra explanation\n\n")

	sb.WriteString("Decision guidelines:\n")
	sb.WriteString("1. If the user explicitly asks for a \"human\", \"agent\", or \"representative\": forward to the live agent and inform the user.\n")
	sb.WriteString("2. For complex technical issues, billing, or complaints: forward to the live agent, optionally informing the user.\n")
	sb.WriteString("3. For simple greetings, basic info, and FAQ-type questions: respond directly.\n")
	sb.WriteString("4. For end-of-conversation responses (\"that's all\", \"no thanks\") while a live agent session is active: forward a closing message to the agent and give the user a summary of what was accomplished.\n")
	sb.WriteString("5. If uncertain: respond directly with helpful information but offer to connect the user with a live agent.\n\n")

	sb.WriteString("Set user_text only when respond_to_user is true, and external_text only when forward_to_external is true.\n")

	return sb.String()
}

// buildRoutingUserPrompt creates the user prompt with recent transcript and
// the message to route.
func buildRoutingUserPrompt(input *RoutingInput) string {
	var sb strings.Builder
	writeTranscript(&sb, input.History)
	fmt.Fprintf(&sb, "User message to route: %s\n", input.Text)
	return sb.String()
}

// buildExternalSystemPrompt creates the system prompt for deciding how to
// answer a live agent message on the customer's behalf.
func buildExternalSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are responding to a live customer service agent on behalf of a customer. A message has come from the agent, and you need to decide how to handle it.\n\n")
	sb.WriteString("You can either:\n")
	sb.WriteString("1. Respond directly to the agent AS THE CUSTOMER if you have enough information from the conversation context\n")
	sb.WriteString("2. Ask the user for more information if the agent needs specific details you don't have\n\n")

	sb.WriteString("CRITICAL: When responding to the agent, speak AS THE CUSTOMER directly. Use natural, authentic customer language.\n\n")

	sb.WriteString("When the agent asks for specific information, provide ONLY what they requested:\n")
	sb.WriteString("- For vendor name: just the vendor name (e.g., \"Amazon\")\n")
	sb.WriteString("- For account ID: just the account ID (e.g., \"12345678\")\n")
	sb.WriteString("- For confirmations: just \"yes\" or \"no\"\n")
	sb.WriteString("- For phone numbers: just the number (e.g., \"555-123-4567\")\n")
	sb.WriteString("- For names: just the name requested\n")
	sb.WriteString("- For email: just the email address\n")
	sb.WriteString("- For any specific detail: provide only that detail without additional context or explanation\n\n")

	sb.WriteString("Decision guidelines:\n")
	sb.WriteString("- Respond directly to the agent for: confirmations, acknowledgments, providing info you have from the conversation, simple yes/no answers\n")
	sb.WriteString("- Ask the user when: the agent requests specific personal details, account numbers, preferences, or decisions only the customer can make\n")
	sb.WriteString("- When the agent asks \"anything else?\" or \"is that all?\": answer \"no thank you\" to the agent AND give the user a summary of what was accomplished\n")
	sb.WriteString("- For agent farewell messages (\"thanks and have a great day\", \"we're all set\"): do NOT respond to the agent, just give the user a summary\n")
	sb.WriteString("- Always be helpful and maintain the conversation flow\n\n")

	sb.WriteString("Set external_text only when reply_to_external is true, and user_question only when ask_user is true.\n")

	return sb.String()
}

// buildExternalUserPrompt creates the user prompt with recent transcript,
// the agent's message, and whatever is known about the user.
func buildExternalUserPrompt(input *ExternalResponseInput) string {
	var sb strings.Builder
	writeTranscript(&sb, input.History)
	fmt.Fprintf(&sb, "Live agent message: %s\n", input.AgentText)

	userContext := input.UserContext
	if userContext == "" {
		userContext = "None available"
	}
	fmt.Fprintf(&sb, "User context: %s\n", userContext)
	return sb.String()
}

// buildFactSystemPrompt creates the system prompt for durable fact extraction.
func buildFactSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a memory extraction system for customer support conversations. Your job is to identify and extract important information that should be remembered for future reference.\n\n")

	sb.WriteString("Extract memories for:\n")
	sb.WriteString("- User information (names, contact details, preferences)\n")
	sb.WriteString("- Vendor names and companies the user mentions\n")
	sb.WriteString("- Part numbers, model numbers, product names\n")
	sb.WriteString("- Account information\n")
	sb.WriteString("- Important facts about the user's situation or context\n\n")

	sb.WriteString("DO NOT extract:\n")
	sb.WriteString("- General questions or requests for help\n")
	sb.WriteString("- Temporary conversation context\n")
	sb.WriteString("- Simple acknowledgments or greetings\n\n")

	sb.WriteString("When you extract a memory, format it as a single clear, factual statement. Examples:\n")
	sb.WriteString("- \"SharkNinja is a vendor that the user wants to give feedback to\"\n")
	sb.WriteString("- \"User's account ID is 12345678\"\n")
	sb.WriteString("- \"User prefers email communication over phone calls\"\n")
	sb.WriteString("- \"Product model number is XYZ-123\"\n\n")

	fmt.Fprintf(&sb, "If no important information should be remembered, respond with exactly: %s\n", noFactSentinel)

	return sb.String()
}

// buildFactUserPrompt creates the user prompt for fact extraction.
func buildFactUserPrompt(input *FactInput) string {
	var sb strings.Builder
	writeTranscript(&sb, input.History)
	fmt.Fprintf(&sb, "User message: %q\n\n", input.Text)
	sb.WriteString("What memory, if any, should be extracted from this message?\n")
	return sb.String()
}

// buildReplySystemPrompt creates the system prompt for the reply agent,
// injecting remembered facts so answers stay consistent even after the
// transcript window has scrolled past them.
func buildReplySystemPrompt(memories []*model.Memory) string {
	var sb strings.Builder

	sb.WriteString("You are a customer support assistant for a relay that can connect users with live support agents. Answer the user's message directly and helpfully.\n\n")

	sb.WriteString("When users provide feedback, complaints, or suggestions, acknowledge their input and let them know their feedback will be processed. For example: \"Thank you for your feedback. I've received your message and it will be reviewed by our team.\" Focus on being helpful and responsive to their immediate needs.\n\n")

	sb.WriteString("Use the session tools when the user asks about the live agent connection:\n")
	sb.WriteString("- Check the session status before answering questions about whether an agent is connected.\n")
	sb.WriteString("- Open a session only when the user clearly asks to be connected with a live agent.\n")
	sb.WriteString("When a tool reports a status message, base your reply on that message.\n")

	if len(memories) > 0 {
		sb.WriteString("\nRemembered information about this conversation:\n")
		for _, m := range memories {
			fmt.Fprintf(&sb, "- %s\n", m.Content)
		}
	}

	return sb.String()
}

// buildReplyUserPrompt creates the user prompt for the reply agent.
func buildReplyUserPrompt(input *ReplyInput) string {
	var sb strings.Builder
	writeTranscript(&sb, input.History)
	fmt.Fprintf(&sb, "User message: %s\n", input.Text)
	return sb.String()
}

// writeTranscript renders the recent transcript window in chronological
// order. Only the last historyWindow messages are included.
func writeTranscript(sb *strings.Builder, history []*model.Message) {
	if len(history) == 0 {
		return
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	sb.WriteString("## Recent conversation\n\n")
	for _, msg := range history {
		fmt.Fprintf(sb, "%s: %s\n", speakerLabel(msg.Origin), msg.Text)
	}
	sb.WriteString("\n")
}

// speakerLabel maps a message origin to the label used in prompts.
func speakerLabel(origin types.MessageOrigin) string {
	switch origin {
	case types.OriginUser:
		return "User"
	case types.OriginExternal:
		return "Agent"
	default:
		return "Assistant"
	}
}
