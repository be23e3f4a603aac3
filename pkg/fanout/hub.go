package fanout

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/relaydesk/relaydesk/pkg/utils/logging"
)

// subscriberBufferSize is the channel buffer for each subscriber. Slow
// consumers fall behind by dropping events rather than blocking publishers.
const subscriberBufferSize = 64

// EventTypeMessage marks an event carrying a newly persisted transcript
// message
const EventTypeMessage = "message"

// Event is one realtime update of a conversation. Quick replies accompany
// agent messages that offered structured response options.
type Event struct {
	Type           string
	ConversationID types.ConversationID
	Message        *model.Message
	QuickReplies   []model.QuickReply
}

// NewMessageEvent builds the event published for a persisted message
func NewMessageEvent(msg *model.Message, quickReplies []model.QuickReply) *Event {
	return &Event{
		Type:           EventTypeMessage,
		ConversationID: msg.ConversationID,
		Message:        msg,
		QuickReplies:   quickReplies,
	}
}

// Hub provides in-memory pub/sub of conversation events. Every persisted
// message is published so connected clients observe the conversation in real
// time without polling.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[types.ConversationID]map[string]chan *Event
	closed      bool
}

func New() *Hub {
	return &Hub{
		subscribers: make(map[types.ConversationID]map[string]chan *Event),
	}
}

// Subscribe registers a subscriber for events of the given conversation. The
// returned func removes the subscription and closes the channel; cancelling
// ctx does the same.
func (h *Hub) Subscribe(ctx context.Context, id types.ConversationID) (<-chan *Event, func()) {
	subID := uuid.New().String()
	ch := make(chan *Event, subscriberBufferSize)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if _, ok := h.subscribers[id]; !ok {
		h.subscribers[id] = make(map[string]chan *Event)
	}
	h.subscribers[id][subID] = ch
	h.mu.Unlock()

	unsubscribe := func() {
		h.unsubscribe(id, subID)
	}

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return ch, unsubscribe
}

// Publish delivers the event to all subscribers of its conversation.
// Non-blocking: subscribers with a full buffer miss the event.
func (h *Hub) Publish(ctx context.Context, event *Event) {
	h.mu.RLock()
	subs, ok := h.subscribers[event.ConversationID]
	if !ok || len(subs) == 0 {
		h.mu.RUnlock()
		return
	}

	targets := make([]chan *Event, 0, len(subs))
	for _, ch := range subs {
		targets = append(targets, ch)
	}
	h.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- event:
		default:
			logging.From(ctx).Warn("dropped event for slow subscriber",
				"conversationID", event.ConversationID,
				"type", event.Type)
		}
	}
}

// SubscriberCount reports how many subscribers the conversation currently has
func (h *Hub) SubscriberCount(id types.ConversationID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[id])
}

func (h *Hub) unsubscribe(id types.ConversationID, subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[id]
	if !ok {
		return
	}

	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)

	if len(subs) == 0 {
		delete(h.subscribers, id)
	}
}

// Close shuts down the hub and closes all subscriber channels
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, subs := range h.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(h.subscribers, id)
	}
}
