package model

import (
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
)

// ErrEventFormat indicates a vendor payload that cannot be decoded into a
// canonical ExternalEvent. Client error, nothing is persisted.
var ErrEventFormat = goerr.New("malformed vendor event")

// Event type and direction values used by the vendor wire format.
const (
	EventTypeText    = "Text"
	EventTypeReceipt = "Receipt"

	// DirectionToUser marks agent-originated traffic (outbound from the
	// vendor's perspective); DirectionFromUser marks echoes of our own sends.
	DirectionToUser   = "Outbound"
	DirectionFromUser = "Inbound"
)

// QuickReply is a structured response option attached to an agent message
type QuickReply struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// ExternalEvent is the canonical form of one inbound vendor webhook payload.
// All webhook decoding goes through ParseExternalEvent; nothing else in the
// codebase touches the vendor wire format.
type ExternalEvent struct {
	EventID      types.ExternalEventID
	ToAddress    string
	SenderLabel  string
	Text         string
	Type         string
	Direction    string
	QuickReplies []QuickReply
	OccurredAt   time.Time
}

// IsAgentText reports whether the event is a live-agent text message that
// the relay should process. Receipts and echoes of our own sends are not.
func (e *ExternalEvent) IsAgentText() bool {
	return e.Type == EventTypeText && e.Direction == DirectionToUser
}

// Wire shapes for the vendor webhook payload. The content array is a tagged
// union keyed by contentType; unknown types are skipped for forward
// compatibility, but a known tag with a missing body is an error.
type eventPayload struct {
	ID        string              `json:"id"`
	Channel   eventChannel        `json:"channel"`
	Type      string              `json:"type"`
	Text      string              `json:"text"`
	Direction string              `json:"direction"`
	Content   []eventContentEntry `json:"content"`
}

type eventChannel struct {
	To   *eventParticipant `json:"to"`
	From *eventParticipant `json:"from"`
	Time string            `json:"time"`
}

type eventParticipant struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

type eventContentEntry struct {
	ContentType    string      `json:"contentType"`
	QuickReply     *QuickReply `json:"quickReply"`
	ButtonResponse *QuickReply `json:"buttonResponse"`
}

// ParseExternalEvent decodes and validates a raw vendor webhook payload
func ParseExternalEvent(data []byte) (*ExternalEvent, error) {
	var payload eventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, goerr.Wrap(ErrEventFormat, "failed to decode vendor payload", goerr.V("cause", err.Error()))
	}

	if payload.ID == "" {
		return nil, goerr.Wrap(ErrEventFormat, "event id is missing")
	}

	ev := &ExternalEvent{
		EventID:   types.ExternalEventID(payload.ID),
		Type:      payload.Type,
		Text:      payload.Text,
		Direction: payload.Direction,
	}

	if payload.Channel.To != nil {
		ev.ToAddress = payload.Channel.To.ID
	}
	if payload.Channel.From != nil {
		ev.SenderLabel = payload.Channel.From.Nickname
	}
	if payload.Channel.Time != "" {
		ts, err := time.Parse(time.RFC3339, payload.Channel.Time)
		if err != nil {
			return nil, goerr.Wrap(ErrEventFormat, "invalid event timestamp", goerr.V("time", payload.Channel.Time))
		}
		ev.OccurredAt = ts
	}

	for i, entry := range payload.Content {
		switch entry.ContentType {
		case "QuickReply":
			if entry.QuickReply == nil {
				return nil, goerr.Wrap(ErrEventFormat, "quick reply content without body", goerr.V("index", i))
			}
			ev.QuickReplies = append(ev.QuickReplies, *entry.QuickReply)
		case "ButtonResponse":
			if entry.ButtonResponse == nil {
				return nil, goerr.Wrap(ErrEventFormat, "button response content without body", goerr.V("index", i))
			}
			ev.QuickReplies = append(ev.QuickReplies, *entry.ButtonResponse)
		default:
			// Unknown content types are ignored so new vendor features do
			// not break the decode path.
		}
	}

	if ev.IsAgentText() {
		if ev.ToAddress == "" {
			return nil, goerr.Wrap(ErrEventFormat, "text event has no recipient address", goerr.V("event_id", payload.ID))
		}
		if ev.Text == "" {
			return nil, goerr.Wrap(ErrEventFormat, "text event has no text", goerr.V("event_id", payload.ID))
		}
	}

	return ev, nil
}
