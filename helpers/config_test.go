package helpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wiresbot/wires/cache"
)

func init() {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cache.SetLogger(logger)
}

func loadTestConfig(t *testing.T, content string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0666))
	LoadConfig(path)
}

func TestGetConfigDuration(t *testing.T) {
	loadTestConfig(t, `{
		"highlights": {
			"active_window": "5m",
			"trigger_window": "whenever"
		}
	}`)

	assert.Equal(t, 5*time.Minute, GetConfigDuration("highlights.active_window", time.Minute))

	// unparseable values fall back
	assert.Equal(t, 10*time.Minute, GetConfigDuration("highlights.trigger_window", 10*time.Minute))

	// absent paths fall back
	assert.Equal(t, time.Hour, GetConfigDuration("highlights.missing", time.Hour))
}

func TestGetConfigString(t *testing.T) {
	loadTestConfig(t, `{
		"discord": {
			"prefix": "!",
			"token": ""
		}
	}`)

	assert.Equal(t, "!", GetConfigString("discord.prefix", "_"))

	// empty values and absent paths fall back
	assert.Equal(t, "fallback", GetConfigString("discord.token", "fallback"))
	assert.Equal(t, "fallback", GetConfigString("discord.missing", "fallback"))
}
