package core

import (
	"github.com/m-mizutani/gollem"
	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// New builds the session tools offered to the reply agent. Both tools are
// scoped to a single conversation so the model never has to supply (or
// guess) a conversation identifier.
func New(repo interfaces.Repository, conversationID types.ConversationID) []gollem.Tool {
	return []gollem.Tool{
		&sessionStatusTool{repo: repo, conversationID: conversationID},
		&openSessionTool{repo: repo, conversationID: conversationID},
	}
}
