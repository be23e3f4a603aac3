package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for the use case layer. Repository not-found conditions
// (interfaces.ErrConversationNotFound, interfaces.ErrMemoryNotFound) pass
// through unchanged so callers can match them with errors.Is.
var (
	// ErrConversationAccessDenied is returned when a user operates on a
	// conversation they do not own.
	ErrConversationAccessDenied = goerr.New("access denied to conversation")

	// ErrOwnershipMismatch is returned when the base address decoded from an
	// external event does not match the conversation owner's registered
	// address. This is a security boundary: the event is rejected with zero
	// side effects.
	ErrOwnershipMismatch = goerr.New("event address does not match conversation owner")

	// ErrNoActiveSession is returned for an external event addressed to a
	// conversation that has no live agent session mapping.
	ErrNoActiveSession = goerr.New("conversation has no active external session")
)

// Context keys for error values
const (
	ConversationIDKey = "conversation_id"
	MemoryIDKey       = "memory_id"
	EventIDKey        = "event_id"
	UserIDKey         = "user_id"
)
