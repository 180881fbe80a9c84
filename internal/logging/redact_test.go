package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactingHandler_MasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewRedactingHandler(slog.NewTextHandler(&buf, nil)))

	l.Info("update user", "user", "alice", "password", "pw1", "New_Password", "pw2",
		slog.Group("unit", "name", "mail", "secret", "s3cr3t"))

	out := buf.String()
	assert.Contains(t, out, "user=alice")
	assert.Contains(t, out, "password=[REDACTED]")
	assert.Contains(t, out, "New_Password=[REDACTED]")
	assert.Contains(t, out, "unit.secret=[REDACTED]")
	assert.Contains(t, out, "unit.name=mail")
	assert.NotContains(t, out, "pw1")
	assert.NotContains(t, out, "pw2")
	assert.NotContains(t, out, "s3cr3t")
}

func TestRedactingHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewRedactingHandler(slog.NewTextHandler(&buf, nil))).With("key", "deadbeef")

	l.Info("derived")
	assert.Contains(t, buf.String(), "key=[REDACTED]")
	assert.NotContains(t, buf.String(), "deadbeef")
}
