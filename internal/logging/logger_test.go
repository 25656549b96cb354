package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mikey/email-fraud-detector/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLogger_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fraud.log")

	v := config.NewEmptyViper()
	v.Set("logging.level", "warn")
	v.Set("logging.output_paths", []string{path})

	logger, err := InitLogger(config.NewFromViper(v))
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("Lookup failed", zap.String("domain", "bank.example"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Lookup failed", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, ServiceName, entry["service"])
	assert.Equal(t, "bank.example", entry["domain"])
	assert.Contains(t, entry, "time")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(Options{Level: "loud", OutputPaths: []string{filepath.Join(t.TempDir(), "x.log")}})
	require.NoError(t, err)

	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestInitConsoleLogger_Verbose(t *testing.T) {
	logger, err := InitConsoleLogger(true, false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
