package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriter_Production(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	flush := InitWriter(&buf, false, "")
	flush()

	slog.Debug("hidden")
	ForUser(nil, "u-1").Info("intake added", "amount_ml", 250)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "intake added", rec["msg"])
	assert.Equal(t, "u-1", rec["user_id"])
	assert.EqualValues(t, 250, rec["amount_ml"])
}

func TestInitWriter_Development(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	InitWriter(&buf, true, "")

	Log.Debug("tick", "remaining", 59)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "remaining=59")
}
