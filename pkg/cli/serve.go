package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/relaydesk/relaydesk/pkg/cli/config"
	httpctrl "github.com/relaydesk/relaydesk/pkg/controller/http"
	"github.com/relaydesk/relaydesk/pkg/domain/model/auth"
	"github.com/relaydesk/relaydesk/pkg/fanout"
	"github.com/relaydesk/relaydesk/pkg/service/oracle"
	"github.com/relaydesk/relaydesk/pkg/usecase"
	"github.com/relaydesk/relaydesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var noAuthAddr string
	var webhookSecret string
	var repoCfg config.Repository
	var llmCfg config.LLM
	var msgrCfg config.Messenger
	var usersCfg config.Users

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("RELAYDESK_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "no-auth",
			Usage:       "Skip authentication and run every request as an anonymous user with the given address (development only). Example: --no-auth=dev@example.com",
			Category:    "Authentication",
			Sources:     cli.EnvVars("RELAYDESK_NO_AUTH"),
			Destination: &noAuthAddr,
		},
		&cli.StringFlag{
			Name:        "webhook-signing-secret",
			Usage:       "Shared secret for verifying vendor webhook signatures",
			Category:    "Messenger",
			Sources:     cli.EnvVars("RELAYDESK_WEBHOOK_SIGNING_SECRET"),
			Destination: &webhookSecret,
		},
	}

	// Add shared config flags
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, msgrCfg.Flags()...)
	flags = append(flags, usersCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			var ucOpts []usecase.Option

			// Initialize routing oracle if an LLM provider is configured
			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize LLM client")
			}
			if llmClient != nil {
				oracleSvc, err := oracle.New(llmClient, repo)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize oracle service")
				}
				ucOpts = append(ucOpts, usecase.WithOracle(oracleSvc))
				logging.Default().Info("Routing oracle enabled", "provider", llmCfg.Provider())
			} else {
				logging.Default().Warn("LLM not configured, routing decisions fall back to static replies")
			}

			// Initialize messenger vendor client if configured
			msgrSvc, err := msgrCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize messenger service")
			}
			if msgrSvc != nil {
				ucOpts = append(ucOpts, usecase.WithMessenger(msgrSvc))
				if dst := msgrCfg.Destination(); dst != "" {
					ucOpts = append(ucOpts, usecase.WithExternalDestination(dst))
				}
				logging.Default().Info("Messenger service enabled", "messenger", msgrCfg)
			} else {
				logging.Default().Info("Messenger not configured, external forwarding is disabled")
			}

			// Event hub for websocket subscribers
			hub := fanout.New()
			defer hub.Close()
			ucOpts = append(ucOpts, usecase.WithHub(hub))

			uc := usecase.New(repo, ucOpts...)

			// Configure authentication
			var httpOpts []httpctrl.Options
			if noAuthAddr != "" {
				logging.Default().Warn("Running in no-auth mode (development only)", "address", noAuthAddr)
				httpOpts = append(httpOpts, httpctrl.WithNoAuthUser(auth.NewAnonymousUser(noAuthAddr)))
			} else if usersCfg.IsConfigured() {
				registry, err := usersCfg.Configure()
				if err != nil {
					return goerr.Wrap(err, "failed to load user registry")
				}
				httpOpts = append(httpOpts, httpctrl.WithAuth(registry))
				logging.Default().Info("Token authentication enabled", "users", registry.Len(), "path", usersCfg.Path())
			}

			if webhookSecret != "" {
				httpOpts = append(httpOpts, httpctrl.WithWebhookSecret(webhookSecret))
				logging.Default().Info("Webhook signature verification enabled")
			} else {
				logging.Default().Warn("Webhook signing secret not configured, vendor webhook accepts unsigned requests")
			}

			// Create HTTP server
			httpHandler, err := httpctrl.New(uc, hub, httpOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
