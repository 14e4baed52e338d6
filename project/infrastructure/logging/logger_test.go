package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn", false)

	logger.Info().Msg("dropped")
	logger.Warn().Str("k", "v").Msg("kept")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "v", entry["k"])
	assert.Equal(t, "dingbot", entry["service"])
}

func TestNewWithWriter_Levels(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, zerolog.InfoLevel, NewWithWriter(&buf, "nonsense", false).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewWithWriter(&buf, "", false).GetLevel())
	assert.Equal(t, zerolog.ErrorLevel, NewWithWriter(&buf, "ERROR", false).GetLevel())
	assert.Equal(t, zerolog.DebugLevel, NewWithWriter(&buf, "info", true).GetLevel())
}
