package logging

import (
	"bytes"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableLoggerTagsTable(t *testing.T) {
	t.Setenv("COLORIZE_LOG", "false")
	t.Setenv("LOG_FORMAT", "")
	var buf bytes.Buffer
	logger := GetZeroLogger("logging::test", &buf)
	tableLogger := TableLogger(logger, "t-1")
	tableLogger.Info().Int(SpotKey, 2).Msg("seated")

	out := buf.String()
	assert.Contains(t, out, "logger=logging::test")
	assert.Contains(t, out, "table=t-1")
	assert.Contains(t, out, "spot=2")
	assert.Contains(t, out, "seated")
}

func TestSpotLoggerWritesJSON(t *testing.T) {
	t.Setenv("LOG_FORMAT", "JSON")
	var buf bytes.Buffer
	logger := GetZeroLogger("logging::test", &buf)
	spotLogger := SpotLogger(logger, "t-1", 3)
	spotLogger.Info().Str(UserKey, "alice").Msg("placed")

	var fields map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &fields))
	assert.Equal(t, "logging::test", fields["logger"])
	assert.Equal(t, "t-1", fields[TableIDKey])
	assert.Equal(t, float64(3), fields[SpotKey])
	assert.Equal(t, "alice", fields[UserKey])
	assert.Equal(t, "placed", fields["message"])
}

func TestColorLoggingFlag(t *testing.T) {
	t.Setenv("COLORIZE_LOG", "0")
	assert.False(t, IsColorLoggingEnabled())
	t.Setenv("COLORIZE_LOG", "TRUE")
	assert.True(t, IsColorLoggingEnabled())
	t.Setenv("COLORIZE_LOG", "")
	assert.True(t, IsColorLoggingEnabled())
	t.Setenv("COLORIZE_LOG", "maybe")
	assert.False(t, IsColorLoggingEnabled())
}

func TestFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "")
	assert.Equal(t, FormatConsole, Format())
	t.Setenv("LOG_FORMAT", "json")
	assert.Equal(t, FormatJSON, Format())
}
