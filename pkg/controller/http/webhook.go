package http

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/utils/errutil"
)

// verifyWebhookSignature verifies the vendor request signature.
// This is a pure function that can be used independently for testing.
func verifyWebhookSignature(secret, timestamp, signature string, body []byte) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}

	if signature == "" {
		return goerr.New("missing signature")
	}

	// Check timestamp to prevent replay attacks (within 5 minutes)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}

	now := time.Now().Unix()
	if now-ts > 60*5 {
		return goerr.New("timestamp too old", goerr.V("timestamp", timestamp), goerr.V("now", now))
	}

	// Compute expected signature
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(secret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expectedSignature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	// Compare signatures
	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		return goerr.New("signature mismatch")
	}

	return nil
}

// WebhookSignatureMiddleware creates a middleware that verifies vendor
// request signatures
func WebhookSignatureMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}

			timestamp := r.Header.Get("X-Relay-Timestamp")
			signature := r.Header.Get("X-Relay-Signature")

			if err := verifyWebhookSignature(secret, timestamp, signature, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "webhook signature verification failed"), http.StatusUnauthorized)
				return
			}

			// Restore the body for the handler
			r.Body = io.NopCloser(bytes.NewBuffer(body))

			next.ServeHTTP(w, r)
		})
	}
}

type webhookResponse struct {
	Status         string `json:"status"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// handleMessengerWebhook receives one vendor event, relays it, and answers
// with the relay outcome. Validation failures map to client status codes so
// the vendor's retry logic sees a definitive answer rather than a 500.
func (s *Server) handleMessengerWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	event, err := model.ParseExternalEvent(body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	result, err := s.uc.HandleExternalEvent(ctx, event)
	if err != nil {
		handleAPIError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, webhookResponse{
		Status:         string(result.Status),
		ConversationID: result.ConversationID.String(),
	})
}
