package config

import (
	"log/slog"

	"github.com/relaydesk/relaydesk/pkg/service/messenger"
	"github.com/urfave/cli/v3"
)

// Messenger holds CLI flags for the external messaging platform
type Messenger struct {
	authURL      string
	apiURL       string
	clientID     string
	clientSecret string
	deploymentID string
	destination  string
}

func (m *Messenger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "messenger-auth-url",
			Usage:       "Messaging platform OAuth base URL",
			Category:    "Messenger",
			Sources:     cli.EnvVars("RELAYDESK_MESSENGER_AUTH_URL"),
			Destination: &m.authURL,
		},
		&cli.StringFlag{
			Name:        "messenger-api-url",
			Usage:       "Messaging platform API base URL",
			Category:    "Messenger",
			Sources:     cli.EnvVars("RELAYDESK_MESSENGER_API_URL"),
			Destination: &m.apiURL,
		},
		&cli.StringFlag{
			Name:        "messenger-client-id",
			Usage:       "Messaging platform OAuth client ID",
			Category:    "Messenger",
			Sources:     cli.EnvVars("RELAYDESK_MESSENGER_CLIENT_ID"),
			Destination: &m.clientID,
		},
		&cli.StringFlag{
			Name:        "messenger-client-secret",
			Usage:       "Messaging platform OAuth client secret",
			Category:    "Messenger",
			Sources:     cli.EnvVars("RELAYDESK_MESSENGER_CLIENT_SECRET"),
			Destination: &m.clientSecret,
		},
		&cli.StringFlag{
			Name:        "messenger-deployment-id",
			Usage:       "Messaging platform deployment ID for agentless sends",
			Category:    "Messenger",
			Sources:     cli.EnvVars("RELAYDESK_MESSENGER_DEPLOYMENT_ID"),
			Destination: &m.deploymentID,
		},
		&cli.StringFlag{
			Name:        "messenger-destination",
			Usage:       "Vendor-side address that forwarded messages are sent to",
			Category:    "Messenger",
			Sources:     cli.EnvVars("RELAYDESK_MESSENGER_DESTINATION"),
			Destination: &m.destination,
		},
	}
}

func (m Messenger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("auth_url", m.authURL),
		slog.String("api_url", m.apiURL),
		slog.Int("client-id.len", len(m.clientID)),
		slog.Int("client-secret.len", len(m.clientSecret)),
		slog.String("deployment_id", m.deploymentID),
		slog.String("destination", m.destination),
	)
}

// IsConfigured reports whether all fields needed to send are present
func (m *Messenger) IsConfigured() bool {
	return m.authURL != "" && m.apiURL != "" && m.clientID != "" &&
		m.clientSecret != "" && m.deploymentID != ""
}

// Destination returns the configured vendor-side destination address
func (m *Messenger) Destination() string {
	return m.destination
}

// Configure creates the messaging platform client. Returns nil when not
// configured (the relay then never forwards to a live agent).
func (m *Messenger) Configure() (messenger.Service, error) {
	if !m.IsConfigured() {
		return nil, nil
	}
	return messenger.New(m.authURL, m.apiURL, m.clientID, m.clientSecret, m.deploymentID)
}
