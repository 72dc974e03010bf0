package contextutil

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := WithLogger(context.Background(), logger)
	LoggerFromContext(ctx).Info("hello", "key", "value")

	if !strings.Contains(buf.String(), "key=value") {
		t.Errorf("log output = %q, want attribute from stored logger", buf.String())
	}
}

func TestLoggerFromContext_Default(t *testing.T) {
	if LoggerFromContext(context.Background()) == nil {
		t.Error("LoggerFromContext() = nil without a stored logger")
	}
}
