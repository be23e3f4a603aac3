package http_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/relaydesk/relaydesk/pkg/controller/http"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/domain/model/auth"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/relaydesk/relaydesk/pkg/repository/memory"
	"github.com/relaydesk/relaydesk/pkg/usecase"
)

// computeWebhookSignature computes the vendor signature for testing
func computeWebhookSignature(secret, timestamp, body string) string {
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(baseString))
	return "v0=" + hex.EncodeToString(h.Sum(nil))
}

// vendorEventBody builds a minimal agent text event in the vendor wire format
func vendorEventBody(id, to, text string) string {
	return fmt.Sprintf(
		`{"id":%q,"channel":{"to":{"id":%q},"from":{"nickname":"Agent Dana"},"time":%q},"type":"Text","text":%q,"direction":"Outbound"}`,
		id, to, time.Now().UTC().Format(time.RFC3339), text,
	)
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "test-webhook-secret"
	body := []byte(`{"id":"ev-1","type":"Text"}`)

	t.Run("valid signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeWebhookSignature(secret, timestamp, string(body))

		gt.NoError(t, httpctrl.VerifyWebhookSignature(secret, timestamp, signature, body))
	})

	t.Run("invalid signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)

		err := httpctrl.VerifyWebhookSignature(secret, timestamp, "v0=invalid_signature", body)
		gt.Value(t, err).NotNil()
	})

	t.Run("missing timestamp", func(t *testing.T) {
		signature := computeWebhookSignature(secret, "123456", string(body))

		err := httpctrl.VerifyWebhookSignature(secret, "", signature, body)
		gt.Value(t, err).NotNil()
	})

	t.Run("missing signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)

		err := httpctrl.VerifyWebhookSignature(secret, timestamp, "", body)
		gt.Value(t, err).NotNil()
	})

	t.Run("timestamp too old", func(t *testing.T) {
		// 10 minutes ago, over the 5 minute replay window
		oldTimestamp := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)
		signature := computeWebhookSignature(secret, oldTimestamp, string(body))

		err := httpctrl.VerifyWebhookSignature(secret, oldTimestamp, signature, body)
		gt.Value(t, err).NotNil()
	})

	t.Run("invalid timestamp format", func(t *testing.T) {
		signature := computeWebhookSignature(secret, "not-a-number", string(body))

		err := httpctrl.VerifyWebhookSignature(secret, "not-a-number", signature, body)
		gt.Value(t, err).NotNil()
	})

	t.Run("wrong secret", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeWebhookSignature("wrong-secret", timestamp, string(body))

		err := httpctrl.VerifyWebhookSignature(secret, timestamp, signature, body)
		gt.Value(t, err).NotNil()
	})

	t.Run("tampered body", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeWebhookSignature(secret, timestamp, "different body")

		err := httpctrl.VerifyWebhookSignature(secret, timestamp, signature, body)
		gt.Value(t, err).NotNil()
	})
}

func TestWebhookSignatureMiddleware(t *testing.T) {
	secret := "test-webhook-secret"
	body := []byte(`{"id":"ev-1"}`)

	t.Run("calls next handler and preserves the body", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeWebhookSignature(secret, timestamp, string(body))

		req := httptest.NewRequest(http.MethodPost, "/hooks/messenger", bytes.NewReader(body))
		req.Header.Set("X-Relay-Timestamp", timestamp)
		req.Header.Set("X-Relay-Signature", signature)
		rec := httptest.NewRecorder()

		var seenBody []byte
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			buf := new(bytes.Buffer)
			_, err := buf.ReadFrom(r.Body)
			gt.NoError(t, err)
			seenBody = buf.Bytes()
			w.WriteHeader(http.StatusOK)
		})

		httpctrl.WebhookSignatureMiddleware(secret)(next).ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, string(seenBody)).Equal(string(body))
	})

	t.Run("rejects invalid signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)

		req := httptest.NewRequest(http.MethodPost, "/hooks/messenger", bytes.NewReader(body))
		req.Header.Set("X-Relay-Timestamp", timestamp)
		req.Header.Set("X-Relay-Signature", "v0=bogus")
		rec := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("next handler must not be called")
		})

		httpctrl.WebhookSignatureMiddleware(secret)(next).ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("rejects missing headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/hooks/messenger", bytes.NewReader(body))
		rec := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("next handler must not be called")
		})

		httpctrl.WebhookSignatureMiddleware(secret)(next).ServeHTTP(rec, req)

		gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)
	})
}

// postWebhook sends a raw body to the messenger webhook and decodes the
// response JSON when present
func postWebhook(t *testing.T, handler http.Handler, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/hooks/messenger", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]string
	if rec.Code == http.StatusOK {
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded)).Required()
	}
	return rec, decoded
}

func TestMessengerWebhook(t *testing.T) {
	user := &auth.User{ID: types.UserID("u-alice"), Name: "Alice", Address: "alice@example.com"}

	setup := func(t *testing.T) (*httpctrl.Server, *usecase.UseCases, *model.Conversation, string) {
		t.Helper()
		repo := memory.New()
		uc := usecase.New(repo)

		srv, err := httpctrl.New(uc, nil, httpctrl.WithNoAuthUser(user))
		gt.NoError(t, err).Required()

		ctx := context.Background()
		conv, err := uc.CreateConversation(ctx, user)
		gt.NoError(t, err).Required()
		_, err = uc.EnsureSession(ctx, conv.ID)
		gt.NoError(t, err).Required()

		tagged, err := model.EncodeAddress(user.Address, conv.ID)
		gt.NoError(t, err).Required()
		return srv, uc, conv, tagged
	}

	t.Run("processed", func(t *testing.T) {
		srv, _, conv, tagged := setup(t)

		rec, resp := postWebhook(t, srv, vendorEventBody("ev-1", tagged, "Hello, I'm Dana. How can I help?"))
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, resp["status"]).Equal("processed")
		gt.Value(t, resp["conversation_id"]).Equal(conv.ID.String())
	})

	t.Run("duplicate delivery", func(t *testing.T) {
		srv, _, _, tagged := setup(t)

		body := vendorEventBody("ev-2", tagged, "first delivery")
		rec, resp := postWebhook(t, srv, body)
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, resp["status"]).Equal("processed")

		rec, resp = postWebhook(t, srv, body)
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, resp["status"]).Equal("duplicate")
	})

	t.Run("ignored direction", func(t *testing.T) {
		srv, _, _, tagged := setup(t)

		body := fmt.Sprintf(`{"id":"ev-3","channel":{"to":{"id":%q}},"type":"Text","text":"echo","direction":"Inbound"}`, tagged)
		rec, resp := postWebhook(t, srv, body)
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, resp["status"]).Equal("ignored")
	})

	t.Run("closed conversation", func(t *testing.T) {
		srv, uc, conv, tagged := setup(t)
		_, err := uc.CloseConversation(context.Background(), user, conv.ID)
		gt.NoError(t, err).Required()

		rec, resp := postWebhook(t, srv, vendorEventBody("ev-4", tagged, "still there?"))
		gt.Value(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, resp["status"]).Equal("closed")
	})

	t.Run("malformed payload", func(t *testing.T) {
		srv, _, _, _ := setup(t)

		rec, _ := postWebhook(t, srv, `{"not json`)
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("malformed recipient address", func(t *testing.T) {
		srv, _, _, _ := setup(t)

		rec, _ := postWebhook(t, srv, vendorEventBody("ev-5", "untagged-address", "hi"))
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		srv, _, _, _ := setup(t)

		tagged, err := model.EncodeAddress(user.Address, types.NewConversationID())
		gt.NoError(t, err).Required()

		rec, _ := postWebhook(t, srv, vendorEventBody("ev-6", tagged, "hi"))
		gt.Value(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("ownership mismatch", func(t *testing.T) {
		srv, _, conv, _ := setup(t)

		forged, err := model.EncodeAddress("mallory@example.com", conv.ID)
		gt.NoError(t, err).Required()

		rec, _ := postWebhook(t, srv, vendorEventBody("ev-7", forged, "hi"))
		gt.Value(t, rec.Code).Equal(http.StatusForbidden)
	})

	t.Run("no active session", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)
		srv, err := httpctrl.New(uc, nil, httpctrl.WithNoAuthUser(user))
		gt.NoError(t, err).Required()

		conv, err := uc.CreateConversation(context.Background(), user)
		gt.NoError(t, err).Required()
		tagged, err := model.EncodeAddress(user.Address, conv.ID)
		gt.NoError(t, err).Required()

		rec, _ := postWebhook(t, srv, vendorEventBody("ev-8", tagged, "hi"))
		gt.Value(t, rec.Code).Equal(http.StatusConflict)
	})

	t.Run("signature required when secret configured", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)
		srv, err := httpctrl.New(uc, nil,
			httpctrl.WithNoAuthUser(user),
			httpctrl.WithWebhookSecret("hook-secret"),
		)
		gt.NoError(t, err).Required()

		conv, err := uc.CreateConversation(context.Background(), user)
		gt.NoError(t, err).Required()
		_, err = uc.EnsureSession(context.Background(), conv.ID)
		gt.NoError(t, err).Required()
		tagged, err := model.EncodeAddress(user.Address, conv.ID)
		gt.NoError(t, err).Required()

		body := vendorEventBody("ev-9", tagged, "signed hello")

		// Unsigned request is rejected.
		rec, _ := postWebhook(t, srv, body)
		gt.Value(t, rec.Code).Equal(http.StatusUnauthorized)

		// Properly signed request goes through.
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		req := httptest.NewRequest(http.MethodPost, "/hooks/messenger", strings.NewReader(body))
		req.Header.Set("X-Relay-Timestamp", timestamp)
		req.Header.Set("X-Relay-Signature", computeWebhookSignature("hook-secret", timestamp, body))
		signed := httptest.NewRecorder()
		srv.ServeHTTP(signed, req)

		gt.Value(t, signed.Code).Equal(http.StatusOK)
	})
}
