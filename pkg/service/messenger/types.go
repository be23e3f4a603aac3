package messenger

import "context"

// Service is the external messaging platform used to reach live agents
type Service interface {
	// SendMessage delivers text to the platform on behalf of the relay
	SendMessage(ctx context.Context, input *SendInput) (*SendResult, error)
}

// SendInput describes one outbound message. From must be the tagged sender
// address so the platform reflects it back in webhook deliveries.
type SendInput struct {
	From string
	To   string
	Text string

	// UseExistingSession continues the platform conversation bound to the
	// sender address instead of opening a fresh one
	UseExistingSession bool
}

// SendResult carries the platform-assigned identifier of the sent message
type SendResult struct {
	MessageID string
}
