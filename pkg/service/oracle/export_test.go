package oracle

// Prompt builders are exported for testing
var (
	BuildRoutingSystemPrompt  = buildRoutingSystemPrompt
	BuildRoutingUserPrompt    = buildRoutingUserPrompt
	BuildExternalSystemPrompt = buildExternalSystemPrompt
	BuildExternalUserPrompt   = buildExternalUserPrompt
	BuildFactSystemPrompt     = buildFactSystemPrompt
	BuildFactUserPrompt       = buildFactUserPrompt
	BuildReplySystemPrompt    = buildReplySystemPrompt
	BuildReplyUserPrompt      = buildReplyUserPrompt
)

// TestNoFactSentinel is the extraction sentinel exported for testing
const TestNoFactSentinel = noFactSentinel
