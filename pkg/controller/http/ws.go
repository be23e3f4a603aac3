package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/fanout"
	"github.com/relaydesk/relaydesk/pkg/utils/errutil"
	"github.com/relaydesk/relaydesk/pkg/utils/logging"
	"github.com/relaydesk/relaydesk/pkg/utils/safe"
)

// Writes must complete within wsWriteTimeout; a client that does not answer
// a ping within wsPongTimeout is considered gone.
const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Access is controlled by the bearer token, not the Origin header.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsEvent struct {
	Type           string             `json:"type"`
	ConversationID string             `json:"conversation_id"`
	Message        *messageResponse   `json:"message,omitempty"`
	QuickReplies   []model.QuickReply `json:"quick_replies,omitempty"`
}

func toWSEvent(event *fanout.Event) *wsEvent {
	out := &wsEvent{
		Type:           event.Type,
		ConversationID: event.ConversationID.String(),
		QuickReplies:   event.QuickReplies,
	}
	if event.Message != nil {
		out.Message = toMessageResponse(event.Message)
	}
	return out
}

// handleWebSocket subscribes the connection to the conversation's event
// stream and writes one JSON frame per broadcast until the client
// disconnects. Ownership is checked before the upgrade so unauthorized
// clients get a plain HTTP error.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	id := conversationIDParam(r)
	if _, err := s.uc.GetConversation(ctx, user, id); err != nil {
		handleAPIError(ctx, w, err)
		return
	}

	if s.hub == nil {
		http.Error(w, "realtime stream is not available", http.StatusServiceUnavailable)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		errutil.Handle(ctx, err, "websocket upgrade failed")
		return
	}
	defer safe.Close(ctx, conn)

	logger := logging.From(ctx).With("conversationID", id, "remote", conn.RemoteAddr().String())

	// The request context does not end when a hijacked connection drops, so
	// the read loop is what detects disconnects. It also feeds pong frames
	// back into the read deadline.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, unsubscribe := s.hub.Subscribe(streamCtx, id)
	defer unsubscribe()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	logger.Info("websocket connected")
	defer logger.Info("websocket disconnected")

	for {
		select {
		case <-streamCtx.Done():
			return

		case event, open := <-events:
			if !open {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(toWSEvent(event)); err != nil {
				logger.Warn("websocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
