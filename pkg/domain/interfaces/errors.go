package interfaces

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared by all repository backends. Callers match them with
// errors.Is regardless of which backend produced them.
var (
	ErrConversationNotFound = goerr.New("conversation not found")
	ErrMemoryNotFound       = goerr.New("memory not found")
)
