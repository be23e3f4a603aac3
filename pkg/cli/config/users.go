package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/relaydesk/relaydesk/pkg/domain/model/auth"
	"github.com/relaydesk/relaydesk/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Users holds the CLI flag for the user registry file
type Users struct {
	path string
}

// Flags returns CLI flags for user registry configuration
func (u *Users) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "users-file",
			Usage:       "Path to the TOML user registry ([[user]] blocks with id, name, address, token)",
			Sources:     cli.EnvVars("RELAYDESK_USERS_FILE"),
			Destination: &u.path,
		},
	}
}

// Path returns the configured registry file path
func (u *Users) Path() string {
	return u.path
}

// IsConfigured reports whether a registry file was given
func (u *Users) IsConfigured() bool {
	return u.path != ""
}

// Configure loads and validates the user registry from the configured file
func (u *Users) Configure() (*auth.Registry, error) {
	return LoadUserRegistry(u.path)
}

// UserEntry is one [[user]] block in the registry file
type UserEntry struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	Address string `toml:"address"`
	Token   string `toml:"token"`
}

// Validate checks if the UserEntry is complete
func (e *UserEntry) Validate() error {
	if e.ID == "" {
		return goerr.Wrap(ErrMissingUserField, "user ID is missing", goerr.V(FieldNameKey, "id"))
	}
	if e.Name == "" {
		return goerr.Wrap(ErrMissingUserField, "user name is missing",
			goerr.V(UserIDKey, e.ID), goerr.V(FieldNameKey, "name"))
	}
	if e.Address == "" {
		return goerr.Wrap(ErrMissingUserField, "user address is missing",
			goerr.V(UserIDKey, e.ID), goerr.V(FieldNameKey, "address"))
	}
	if e.Token == "" {
		return goerr.Wrap(ErrMissingUserField, "user token is missing",
			goerr.V(UserIDKey, e.ID), goerr.V(FieldNameKey, "token"))
	}
	return nil
}

type userFile struct {
	Users []UserEntry `toml:"user"`
}

// validate checks the file as a whole: every entry complete, no
// duplicate IDs, no duplicate tokens
func (f *userFile) validate() error {
	userIDs := make(map[string]bool)
	tokens := make(map[string]bool)

	for i, entry := range f.Users {
		if err := entry.Validate(); err != nil {
			return goerr.Wrap(err, "invalid user entry", goerr.V(UserIndexKey, i))
		}
		if userIDs[entry.ID] {
			return goerr.Wrap(ErrDuplicateUserID, "user ID appears more than once",
				goerr.V(UserIDKey, entry.ID), goerr.V(UserIndexKey, i))
		}
		userIDs[entry.ID] = true

		if tokens[entry.Token] {
			return goerr.Wrap(ErrDuplicateToken, "user token appears more than once",
				goerr.V(UserIDKey, entry.ID), goerr.V(UserIndexKey, i))
		}
		tokens[entry.Token] = true
	}

	return nil
}

// LoadUserEntries reads and validates the users file, returning the parsed
// entries in file order
func LoadUserEntries(path string) ([]UserEntry, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "user registry file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read user registry file", goerr.V(ConfigPathKey, path))
	}

	var file userFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse user registry TOML",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	if err := file.validate(); err != nil {
		return nil, goerr.Wrap(err, "user registry validation failed", goerr.V(ConfigPathKey, path))
	}

	return file.Users, nil
}

// LoadUserRegistry loads the user registry from a TOML file
func LoadUserRegistry(path string) (*auth.Registry, error) {
	entries, err := LoadUserEntries(path)
	if err != nil {
		return nil, err
	}

	registry := auth.NewRegistry()
	for _, entry := range entries {
		registry.Register(entry.Token, &auth.User{
			ID:      types.UserID(entry.ID),
			Name:    entry.Name,
			Address: entry.Address,
		})
	}

	return registry, nil
}
