package helpers

import (
	"time"

	"github.com/Jeffail/gabs"
	"github.com/karrick/tparse/v2"
	"github.com/wiresbot/wires/cache"
)

// config Saves the bot-config
var config *gabs.Container

// LoadConfig loads the config from $path into $config
func LoadConfig(path string) {
	json, err := gabs.ParseJSONFile(path)

	if err != nil {
		panic(err)
	}

	config = json
}

// GetConfig is a config getter
func GetConfig() *gabs.Container {
	return config
}

// GetConfigString reads a string from $path, falls back to $fallback if
// the path is unset or empty
func GetConfigString(path string, fallback string) string {
	if config == nil || !config.ExistsP(path) {
		return fallback
	}

	value, ok := config.Path(path).Data().(string)
	if !ok || value == "" {
		return fallback
	}

	return value
}

// GetConfigDuration reads a relative duration (for example "5m" or "1h30m")
// from $path, falls back to $fallback if the path is unset or unparseable
func GetConfigDuration(path string, fallback time.Duration) time.Duration {
	value := GetConfigString(path, "")
	if value == "" {
		return fallback
	}

	base := time.Now()
	duration, err := tparse.AbsoluteDuration(base, value)
	if err != nil {
		cache.GetLogger().WithField("module", "config").Warn(
			"unable to parse duration \"" + value + "\" at " + path + ": " + err.Error())
		return fallback
	}

	return duration
}
