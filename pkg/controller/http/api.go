package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/model/auth"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/relaydesk/relaydesk/pkg/usecase"
	"github.com/relaydesk/relaydesk/pkg/utils/errutil"
)

type conversationResponse struct {
	ID            string             `json:"id"`
	OwnerID       string             `json:"owner_id"`
	Status        string             `json:"status"`
	SessionActive bool               `json:"session_active"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	LatestMessage *messageResponse   `json:"latest_message,omitempty"`
	Messages      []*messageResponse `json:"messages,omitempty"`
}

type messageResponse struct {
	ID                string    `json:"id"`
	ConversationID    string    `json:"conversation_id"`
	Text              string    `json:"text"`
	Origin            string    `json:"origin"`
	Markdown          bool      `json:"markdown"`
	Delivered         bool      `json:"delivered"`
	ExternalMessageID string    `json:"external_message_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type memoryResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toConversationResponse(conv *model.Conversation) *conversationResponse {
	return &conversationResponse{
		ID:            conv.ID.String(),
		OwnerID:       conv.OwnerID.String(),
		Status:        conv.Status.String(),
		SessionActive: conv.HasActiveSession(),
		CreatedAt:     conv.CreatedAt,
		UpdatedAt:     conv.UpdatedAt,
	}
}

func toMessageResponse(msg *model.Message) *messageResponse {
	return &messageResponse{
		ID:                msg.ID.String(),
		ConversationID:    msg.ConversationID.String(),
		Text:              msg.Text,
		Origin:            msg.Origin.String(),
		Markdown:          msg.Markdown,
		Delivered:         msg.Delivered,
		ExternalMessageID: msg.ExternalMessageID,
		CreatedAt:         msg.CreatedAt,
	}
}

func toMessageResponses(msgs []*model.Message) []*messageResponse {
	out := make([]*messageResponse, len(msgs))
	for i, msg := range msgs {
		out[i] = toMessageResponse(msg)
	}
	return out
}

func toMemoryResponse(mem *model.Memory) *memoryResponse {
	return &memoryResponse{
		ID:             mem.ID.String(),
		ConversationID: mem.ConversationID.String(),
		Content:        mem.Content,
		CreatedAt:      mem.CreatedAt,
		UpdatedAt:      mem.UpdatedAt,
	}
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}

// handleAPIError maps domain sentinels to their HTTP status codes.
// Anything unmapped is an internal error.
func handleAPIError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interfaces.ErrConversationNotFound),
		errors.Is(err, interfaces.ErrMemoryNotFound):
		errutil.HandleHTTP(ctx, w, err, http.StatusNotFound)
	case errors.Is(err, usecase.ErrConversationAccessDenied),
		errors.Is(err, usecase.ErrOwnershipMismatch):
		errutil.HandleHTTP(ctx, w, err, http.StatusForbidden)
	case errors.Is(err, model.ErrAddressFormat),
		errors.Is(err, model.ErrEventFormat):
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
	case errors.Is(err, usecase.ErrNoActiveSession):
		errutil.HandleHTTP(ctx, w, err, http.StatusConflict)
	default:
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
	}
}

// requestUser returns the authenticated user attached by the middleware
func requestUser(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}

func conversationIDParam(r *http.Request) types.ConversationID {
	return types.ConversationID(chi.URLParam(r, "id"))
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	conv, err := s.uc.CreateConversation(ctx, user)
	if err != nil {
		handleAPIError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, toConversationResponse(conv))
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	summaries, err := s.uc.ListConversations(ctx, user)
	if err != nil {
		handleAPIError(ctx, w, err)
		return
	}

	resp := struct {
		Conversations []*conversationResponse `json:"conversations"`
	}{
		Conversations: make([]*conversationResponse, len(summaries)),
	}
	for i, summary := range summaries {
		conv := toConversationResponse(summary.Conversation)
		if summary.LatestMessage != nil {
			conv.LatestMessage = toMessageResponse(summary.LatestMessage)
		}
		resp.Conversations[i] = conv
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	conv, err := s.uc.GetConversation(ctx, user, conversationIDParam(r))
	if err != nil {
		handleAPIError(ctx, w, err)
		return
	}

	resp := toConversationResponse(conv)
	if r.URL.Query().Get("include_transcript") == "true" {
		msgs, err := s.uc.ListMessages(ctx, user, conv.ID)
		if err != nil {
			handleAPIError(ctx, w, err)
			return
		}
		resp.Messages = toMessageResponses(msgs)
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) handleCloseConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	conv, err := s.uc.CloseConversation(ctx, user, conversationIDParam(r))
	if err != nil {
		handleAPIError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, toConversationResponse(conv))
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	if err := s.uc.DeleteConversation(ctx, user, conversationIDParam(r)); err != nil {
		handleAPIError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	msgs, err := s.uc.ListMessages(ctx, user, conversationIDParam(r))
	if err != nil {
		handleAPIError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, struct {
		Messages []*messageResponse `json:"messages"`
	}{Messages: toMessageResponses(msgs)})
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to decode request body"), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}

	id := conversationIDParam(r)

	// Ownership is checked here; the router itself trusts its caller.
	if _, err := s.uc.GetConversation(ctx, user, id); err != nil {
		handleAPIError(ctx, w, err)
		return
	}

	msg, err := s.uc.HandleUserMessage(ctx, id, req.Text, user.Address)
	if err != nil {
		handleAPIError(ctx, w, err)
		return
	}
	if msg == nil {
		// Conversation is closed; nothing was recorded.
		writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "closed"})
		return
	}

	writeJSON(ctx, w, http.StatusCreated, toMessageResponse(msg))
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	memories, err := s.uc.ListMemories(ctx, user, conversationIDParam(r))
	if err != nil {
		handleAPIError(ctx, w, err)
		return
	}

	resp := struct {
		Memories []*memoryResponse `json:"memories"`
	}{
		Memories: make([]*memoryResponse, len(memories)),
	}
	for i, mem := range memories {
		resp.Memories[i] = toMemoryResponse(mem)
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to decode request body"), http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "content is required"})
		return
	}

	mem, err := s.uc.CreateMemory(ctx, user, conversationIDParam(r), req.Content)
	if err != nil {
		handleAPIError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, toMemoryResponse(mem))
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	memoryID := types.MemoryID(chi.URLParam(r, "memoryID"))
	if err := s.uc.DeleteMemory(ctx, user, conversationIDParam(r), memoryID); err != nil {
		handleAPIError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
