package model

import (
	"time"

	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// Message is one entry in a conversation transcript. Messages are
// append-only: once written they are never mutated. Delivered marks
// messages that were sent to (or received from) the external platform,
// and ExternalMessageID carries the vendor-side identifier when one exists.
type Message struct {
	ID                types.MessageID
	ConversationID    types.ConversationID
	Text              string
	Origin            types.MessageOrigin
	Markdown          bool
	Delivered         bool
	ExternalMessageID string
	CreatedAt         time.Time
}

// NewMessage creates a message with a generated ID and timestamp.
// The rich-format flag is derived from the text.
func NewMessage(conversationID types.ConversationID, text string, origin types.MessageOrigin) *Message {
	return &Message{
		ID:             types.NewMessageID(),
		ConversationID: conversationID,
		Text:           text,
		Origin:         origin,
		Markdown:       DetectMarkdown(text),
		CreatedAt:      time.Now().UTC(),
	}
}

// NewDeliveredMessage creates a system message that was successfully sent to
// the external platform, tagged with the vendor-assigned identifier.
func NewDeliveredMessage(conversationID types.ConversationID, text string, externalMessageID string) *Message {
	msg := NewMessage(conversationID, text, types.OriginSystem)
	msg.Delivered = true
	msg.ExternalMessageID = externalMessageID
	return msg
}

// NewExternalMessage creates a message received from the external platform
func NewExternalMessage(conversationID types.ConversationID, text string, eventID types.ExternalEventID) *Message {
	msg := NewMessage(conversationID, text, types.OriginExternal)
	msg.Delivered = true
	msg.ExternalMessageID = eventID.String()
	return msg
}

// Clone returns a deep copy of the message
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	copied := *m
	return &copied
}
