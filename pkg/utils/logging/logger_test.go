package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/relaydesk/relaydesk/pkg/utils/logging"
)

func TestRedactSecretAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)

	logger.Info("configured", "secret_token", "super-sensitive", "endpoint", "https://example.com")

	out := buf.String()
	gt.S(t, out).Contains("endpoint")
	gt.S(t, out).Contains("https://example.com")
	gt.B(t, strings.Contains(out, "super-sensitive")).False()
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelWarn, logging.FormatJSON)

	logger.Info("should be dropped")
	logger.Warn("should be kept")

	out := buf.String()
	gt.B(t, strings.Contains(out, "should be dropped")).False()
	gt.S(t, out).Contains("should be kept")
}

func TestContextCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("from context")

	gt.S(t, buf.String()).Contains("from context")

	gt.V(t, logging.From(context.Background())).Equal(logging.Default())
}
