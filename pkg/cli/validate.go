package cli

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/relaydesk/relaydesk/pkg/cli/config"
	"github.com/relaydesk/relaydesk/pkg/domain/interfaces"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/relaydesk/relaydesk/pkg/repository/firestore"
	"github.com/relaydesk/relaydesk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var usersCfg config.Users
	var firestoreProjectID string
	var firestoreDatabaseID string

	var flags []cli.Flag
	flags = append(flags, usersCfg.Flags()...)
	flags = append(flags, &cli.StringFlag{
		Name:        "firestore-project-id",
		Usage:       "Firestore Project ID (if specified, connectivity check is performed)",
		Sources:     cli.EnvVars("RELAYDESK_FIRESTORE_PROJECT_ID"),
		Destination: &firestoreProjectID,
	})
	flags = append(flags, &cli.StringFlag{
		Name:        "firestore-database-id",
		Usage:       "Firestore Database ID",
		Sources:     cli.EnvVars("RELAYDESK_FIRESTORE_DATABASE_ID"),
		Destination: &firestoreDatabaseID,
	})

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the users file and optionally check Firestore connectivity",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// Step 1: Load and validate the users file
			if !usersCfg.IsConfigured() {
				return goerr.New("users file is not specified")
			}

			entries, err := config.LoadUserEntries(usersCfg.Path())
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			logger.Info("Configuration validation passed",
				"path", usersCfg.Path(),
				"user_count", len(entries),
			)
			for _, entry := range entries {
				logger.Info("User validated",
					"id", entry.ID,
					"name", entry.Name,
					"address", entry.Address,
					"token.len", len(entry.Token),
				)
			}

			// Step 2: If Firestore project ID is specified, check connectivity
			if firestoreProjectID == "" {
				logger.Info("No Firestore project ID specified, skipping connectivity check")
				return nil
			}

			repo, err := firestore.New(ctx, firestoreProjectID, firestoreDatabaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize Firestore repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			logger.Info("Using Firestore repository",
				"project_id", firestoreProjectID,
				"database_id", firestoreDatabaseID,
			)

			// A read against a fresh ID must come back as not-found. Anything
			// else means the database is unreachable or misconfigured.
			if _, err := repo.Conversation().Get(ctx, types.NewConversationID()); err != nil && !errors.Is(err, interfaces.ErrConversationNotFound) {
				return goerr.Wrap(err, "Firestore connectivity check failed")
			}

			logger.Info("Firestore connectivity check passed")
			return nil
		},
	}
}
