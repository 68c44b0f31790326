package logger

import (
	"os"
	"path/filepath"
	"testing"

	"paybaba/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	l := logrus.New()
	Configure(l, config.LoggingConfig{Level: "debug", Format: "text"})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	Configure(l, config.LoggingConfig{Level: "nonsense"})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestConfigure_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l := logrus.New()
	Configure(l, config.LoggingConfig{Level: "info", Format: "json", Output: "file", FilePath: path, MaxSizeMB: 1})

	l.WithField("merchant_id", "m-1").Info("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.Contains(t, string(data), `"merchant_id":"m-1"`)
}
