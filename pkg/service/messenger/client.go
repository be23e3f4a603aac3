package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/utils/safe"
)

// DefaultTokenMargin is subtracted from the token lifetime so a token is
// refreshed before the platform rejects it
const DefaultTokenMargin = 60 * time.Second

// client implements Service against the platform's agentless message API
type client struct {
	authURL      string
	apiURL       string
	clientID     string
	clientSecret string
	deploymentID string

	httpClient  *http.Client
	tokenMargin time.Duration

	mu             sync.Mutex
	accessToken    string
	tokenExpiresAt time.Time
}

// Option is a functional option for client configuration
type Option func(*client)

// WithHTTPClient replaces the HTTP client, used by tests
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithTokenMargin sets the refresh margin applied to token lifetimes
func WithTokenMargin(margin time.Duration) Option {
	return func(c *client) {
		c.tokenMargin = margin
	}
}

// New creates a messenger service speaking to the platform at apiURL,
// authenticating with client credentials against authURL
func New(authURL, apiURL, clientID, clientSecret, deploymentID string, opts ...Option) (Service, error) {
	if authURL == "" {
		return nil, goerr.New("messenger auth URL is required")
	}
	if apiURL == "" {
		return nil, goerr.New("messenger API URL is required")
	}
	if clientID == "" || clientSecret == "" {
		return nil, goerr.New("messenger client credentials are required")
	}
	if deploymentID == "" {
		return nil, goerr.New("messenger deployment ID is required")
	}

	c := &client{
		authURL:      strings.TrimRight(authURL, "/"),
		apiURL:       strings.TrimRight(apiURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		deploymentID: deploymentID,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		tokenMargin:  DefaultTokenMargin,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a cached access token, fetching a fresh one when the cached
// token is missing or about to expire
func (c *client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiresAt) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", goerr.Wrap(err, "failed to build token request")
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to request access token")
	}
	defer safe.Close(ctx, resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read token response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", goerr.New("token request rejected",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(raw)))
	}

	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return "", goerr.Wrap(err, "failed to parse token response")
	}
	if tr.AccessToken == "" {
		return "", goerr.New("token response without access token")
	}

	lifetime := time.Duration(tr.ExpiresIn) * time.Second
	if lifetime > c.tokenMargin {
		lifetime -= c.tokenMargin
	} else {
		lifetime = 0
	}

	c.accessToken = tr.AccessToken
	c.tokenExpiresAt = time.Now().Add(lifetime)
	return c.accessToken, nil
}

type agentlessRequest struct {
	FromAddress             string `json:"fromAddress"`
	ToAddress               string `json:"toAddress"`
	TextBody                string `json:"textBody"`
	MessengerType           string `json:"messengerType"`
	DeploymentID            string `json:"deploymentId"`
	UseExistingConversation bool   `json:"useExistingConversation"`
}

type agentlessResponse struct {
	ID string `json:"id"`
}

// SendMessage posts one agentless message. Any non-2xx response becomes an
// error carrying the platform's status and body.
func (c *client) SendMessage(ctx context.Context, input *SendInput) (*SendResult, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(&agentlessRequest{
		FromAddress:             input.From,
		ToAddress:               input.To,
		TextBody:                input.Text,
		MessengerType:           "open",
		DeploymentID:            c.deploymentID,
		UseExistingConversation: input.UseExistingSession,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal agentless message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/v2/conversations/messages/agentless", bytes.NewReader(payload))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build agentless message request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to send agentless message")
	}
	defer safe.Close(ctx, resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read agentless message response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.New("agentless message rejected",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(raw)),
			goerr.V("to", input.To))
	}

	var ar agentlessResponse
	if err := json.Unmarshal(raw, &ar); err != nil {
		return nil, goerr.Wrap(err, "failed to parse agentless message response")
	}

	return &SendResult{MessageID: ar.ID}, nil
}
