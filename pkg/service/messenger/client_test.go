package messenger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/relaydesk/relaydesk/pkg/service/messenger"
)

type platformStub struct {
	t            *testing.T
	tokenCalls   atomic.Int64
	sendCalls    atomic.Int64
	expiresIn    int
	sendStatus   int
	lastSendBody map[string]any
}

func (p *platformStub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		p.tokenCalls.Add(1)

		user, pass, ok := r.BasicAuth()
		gt.B(p.t, ok).True()
		gt.Value(p.t, user).Equal("client-id")
		gt.Value(p.t, pass).Equal("client-secret")
		gt.Value(p.t, r.FormValue("grant_type")).Equal("client_credentials")

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"token_type":   "bearer",
			"expires_in":   p.expiresIn,
		}); err != nil {
			p.t.Error(err)
		}
	})

	mux.HandleFunc("/api/v2/conversations/messages/agentless", func(w http.ResponseWriter, r *http.Request) {
		p.sendCalls.Add(1)

		gt.Value(p.t, r.Header.Get("Authorization")).Equal("Bearer test-token")

		var body map[string]any
		gt.NoError(p.t, json.NewDecoder(r.Body).Decode(&body))
		p.lastSendBody = body

		if p.sendStatus != 0 {
			w.WriteHeader(p.sendStatus)
			if _, err := w.Write([]byte(`{"message":"no agent available"}`)); err != nil {
				p.t.Error(err)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{"id": "ext-msg-1"}); err != nil {
			p.t.Error(err)
		}
	})

	return mux
}

func newTestClient(t *testing.T, stub *platformStub, opts ...messenger.Option) messenger.Service {
	t.Helper()

	ts := httptest.NewServer(stub.handler())
	t.Cleanup(ts.Close)

	svc, err := messenger.New(ts.URL, ts.URL, "client-id", "client-secret", "deploy-1", opts...)
	gt.NoError(t, err).Required()
	return svc
}

func TestSendMessage(t *testing.T) {
	stub := &platformStub{t: t, expiresIn: 3600}
	svc := newTestClient(t, stub)

	result, err := svc.SendMessage(context.Background(), &messenger.SendInput{
		From:               "relay+c1@support.example.com",
		To:                 "agents@vendor.example.com",
		Text:               "customer needs a refund",
		UseExistingSession: true,
	})
	gt.NoError(t, err).Required()
	gt.Value(t, result.MessageID).Equal("ext-msg-1")

	gt.Value(t, stub.lastSendBody["fromAddress"]).Equal("relay+c1@support.example.com")
	gt.Value(t, stub.lastSendBody["toAddress"]).Equal("agents@vendor.example.com")
	gt.Value(t, stub.lastSendBody["textBody"]).Equal("customer needs a refund")
	gt.Value(t, stub.lastSendBody["messengerType"]).Equal("open")
	gt.Value(t, stub.lastSendBody["deploymentId"]).Equal("deploy-1")
	gt.Value(t, stub.lastSendBody["useExistingConversation"]).Equal(true)
}

func TestTokenIsCached(t *testing.T) {
	stub := &platformStub{t: t, expiresIn: 3600}
	svc := newTestClient(t, stub)
	ctx := context.Background()

	input := &messenger.SendInput{From: "a@x.com", To: "b@y.com", Text: "one"}
	_, err := svc.SendMessage(ctx, input)
	gt.NoError(t, err).Required()
	_, err = svc.SendMessage(ctx, input)
	gt.NoError(t, err).Required()

	gt.Value(t, stub.tokenCalls.Load()).Equal(int64(1))
	gt.Value(t, stub.sendCalls.Load()).Equal(int64(2))
}

func TestTokenRefreshAfterExpiry(t *testing.T) {
	// Margin consumes the whole lifetime, so every send refreshes
	stub := &platformStub{t: t, expiresIn: 1}
	svc := newTestClient(t, stub, messenger.WithTokenMargin(time.Second))
	ctx := context.Background()

	input := &messenger.SendInput{From: "a@x.com", To: "b@y.com", Text: "one"}
	_, err := svc.SendMessage(ctx, input)
	gt.NoError(t, err).Required()
	_, err = svc.SendMessage(ctx, input)
	gt.NoError(t, err).Required()

	gt.Value(t, stub.tokenCalls.Load()).Equal(int64(2))
}

func TestSendFailureCarriesStatusAndBody(t *testing.T) {
	stub := &platformStub{t: t, expiresIn: 3600, sendStatus: http.StatusBadGateway}
	svc := newTestClient(t, stub)

	_, err := svc.SendMessage(context.Background(), &messenger.SendInput{From: "a@x.com", To: "b@y.com", Text: "one"})
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("agentless message rejected")
}

func TestAuthFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)

	svc, err := messenger.New(ts.URL, ts.URL, "client-id", "client-secret", "deploy-1")
	gt.NoError(t, err).Required()

	_, err = svc.SendMessage(context.Background(), &messenger.SendInput{From: "a@x.com", To: "b@y.com", Text: "one"})
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("token request rejected")
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name         string
		authURL      string
		apiURL       string
		clientID     string
		clientSecret string
		deploymentID string
	}{
		{name: "missing auth URL", apiURL: "https://api", clientID: "a", clientSecret: "b", deploymentID: "d"},
		{name: "missing API URL", authURL: "https://auth", clientID: "a", clientSecret: "b", deploymentID: "d"},
		{name: "missing credentials", authURL: "https://auth", apiURL: "https://api", deploymentID: "d"},
		{name: "missing deployment", authURL: "https://auth", apiURL: "https://api", clientID: "a", clientSecret: "b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := messenger.New(tc.authURL, tc.apiURL, tc.clientID, tc.clientSecret, tc.deploymentID)
			gt.Error(t, err)
		})
	}
}
