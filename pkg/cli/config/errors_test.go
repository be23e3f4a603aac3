package config_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/relaydesk/relaydesk/pkg/cli/config"
)

func TestConfigErrors_SentinelIdentification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		sentinelError error
		wantMatch     bool
	}{
		{
			name:          "ErrConfigNotFound can be identified",
			err:           goerr.Wrap(config.ErrConfigNotFound, "failed to load users file"),
			sentinelError: config.ErrConfigNotFound,
			wantMatch:     true,
		},
		{
			name:          "ErrInvalidConfig can be identified",
			err:           goerr.Wrap(config.ErrInvalidConfig, "parse failed"),
			sentinelError: config.ErrInvalidConfig,
			wantMatch:     true,
		},
		{
			name:          "ErrDuplicateUserID can be identified",
			err:           goerr.Wrap(config.ErrDuplicateUserID, "found duplicate"),
			sentinelError: config.ErrDuplicateUserID,
			wantMatch:     true,
		},
		{
			name:          "ErrDuplicateToken can be identified",
			err:           goerr.Wrap(config.ErrDuplicateToken, "found duplicate"),
			sentinelError: config.ErrDuplicateToken,
			wantMatch:     true,
		},
		{
			name:          "ErrMissingUserField can be identified",
			err:           goerr.Wrap(config.ErrMissingUserField, "field is empty"),
			sentinelError: config.ErrMissingUserField,
			wantMatch:     true,
		},
		{
			name:          "Different sentinel errors do not match",
			err:           goerr.Wrap(config.ErrConfigNotFound, "failed to load users file"),
			sentinelError: config.ErrInvalidConfig,
			wantMatch:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := errors.Is(tt.err, tt.sentinelError)
			gt.Value(t, matched).Equal(tt.wantMatch)
		})
	}
}

func TestConfigErrors_ContextExtraction(t *testing.T) {
	tests := []struct {
		name     string
		buildErr func() error
		sentinel error
	}{
		{
			name: "Extract ConfigPathKey",
			buildErr: func() error {
				return goerr.Wrap(config.ErrConfigNotFound, "users file not found",
					goerr.V(config.ConfigPathKey, "/path/to/users.toml"))
			},
			sentinel: config.ErrConfigNotFound,
		},
		{
			name: "Extract UserIDKey",
			buildErr: func() error {
				return goerr.Wrap(config.ErrDuplicateUserID, "duplicate user",
					goerr.V(config.UserIDKey, "u-alice"))
			},
			sentinel: config.ErrDuplicateUserID,
		},
		{
			name: "Extract UserIndexKey",
			buildErr: func() error {
				return goerr.Wrap(config.ErrDuplicateToken, "duplicate token",
					goerr.V(config.UserIndexKey, 3))
			},
			sentinel: config.ErrDuplicateToken,
		},
		{
			name: "Extract FieldNameKey",
			buildErr: func() error {
				return goerr.Wrap(config.ErrMissingUserField, "user token is missing",
					goerr.V(config.FieldNameKey, "token"))
			},
			sentinel: config.ErrMissingUserField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.buildErr()

			// goerr embeds values in the error message
			errStr := err.Error()
			gt.String(t, errStr).NotEqual("").Required()

			gt.Bool(t, errors.Is(err, tt.sentinel)).True()
		})
	}
}

func TestConfigErrors_AllSentinelErrorsAreDefined(t *testing.T) {
	// Verify all sentinel errors are non-nil and have messages
	sentinelErrors := []struct {
		name string
		err  error
	}{
		{"ErrConfigNotFound", config.ErrConfigNotFound},
		{"ErrInvalidConfig", config.ErrInvalidConfig},
		{"ErrDuplicateUserID", config.ErrDuplicateUserID},
		{"ErrDuplicateToken", config.ErrDuplicateToken},
		{"ErrMissingUserField", config.ErrMissingUserField},
	}

	for _, se := range sentinelErrors {
		t.Run(se.name, func(t *testing.T) {
			gt.Value(t, se.err).NotNil()
			gt.String(t, se.err.Error()).NotEqual("")
		})
	}
}
