package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/urfave/cli/v3"
)

// LLM holds configuration for the decision oracle's LLM backend
type LLM struct {
	provider       string
	openaiAPIKey   string
	openaiModel    string
	geminiProject  string
	geminiLocation string
}

// Flags returns CLI flags for LLM configuration
func (l *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider for routing decisions (openai or gemini)",
			Value:       "openai",
			Sources:     cli.EnvVars("RELAYDESK_LLM_PROVIDER"),
			Destination: &l.provider,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("RELAYDESK_OPENAI_API_KEY"),
			Destination: &l.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI model name",
			Sources:     cli.EnvVars("RELAYDESK_OPENAI_MODEL"),
			Destination: &l.openaiModel,
		},
		&cli.StringFlag{
			Name:        "gemini-project-id",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("RELAYDESK_GEMINI_PROJECT_ID"),
			Destination: &l.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("RELAYDESK_GEMINI_LOCATION"),
			Destination: &l.geminiLocation,
		},
	}
}

// LogAttrs returns log attributes for the LLM configuration (secrets hidden)
func (l *LLM) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", l.provider),
		slog.Int("openai_api_key.len", len(l.openaiAPIKey)),
		slog.String("openai_model", l.openaiModel),
		slog.String("gemini_project_id", l.geminiProject),
		slog.String("gemini_location", l.geminiLocation),
	}
}

// Provider returns the configured provider name
func (l *LLM) Provider() string {
	return l.provider
}

// Configure creates an LLM client from the configured flags. Returns nil when
// the selected provider has no credentials (the relay then runs on fallback
// decisions only).
func (l *LLM) Configure(ctx context.Context) (gollem.LLMClient, error) {
	switch l.provider {
	case "openai":
		if l.openaiAPIKey == "" {
			return nil, nil
		}
		var opts []openai.Option
		if l.openaiModel != "" {
			opts = append(opts, openai.WithModel(l.openaiModel))
		}
		client, err := openai.New(ctx, l.openaiAPIKey, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil

	case "gemini":
		if l.geminiProject == "" {
			return nil, nil
		}
		client, err := gemini.New(ctx, l.geminiProject, l.geminiLocation)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	default:
		return nil, goerr.New("invalid LLM provider", goerr.V("provider", l.provider))
	}
}
