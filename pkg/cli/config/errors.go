package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound   = goerr.New("configuration file not found")
	ErrInvalidConfig    = goerr.New("invalid configuration")
	ErrDuplicateUserID  = goerr.New("duplicate user ID")
	ErrDuplicateToken   = goerr.New("duplicate user token")
	ErrMissingUserField = goerr.New("user field is required")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	UserIDKey     = "user_id"
	UserIndexKey  = "user_index"
	FieldNameKey  = "field_name"
)
