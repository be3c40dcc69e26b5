package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.InfoLevel).With("backend")

	l.Info("Registered car %s", "127.0.0.1:9001")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "backend", entry["component"])
	assert.Equal(t, "Registered car 127.0.0.1:9001", entry["message"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)

	l.Debug("debug")
	l.Info("info")
	assert.Empty(t, buf.String())

	l.Warn("warn")
	l.Error("error")
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backend.log")

	l, err := New(path, "debug")
	require.NoError(t, err)
	l.Debug("hello %d", 1)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello 1")
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New("", "loud")
	require.Error(t, err)
}

func TestParseLevelDefault(t *testing.T) {
	lvl, err := parseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, lvl)

	lvl, err = parseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, lvl)
}
