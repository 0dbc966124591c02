package config

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// SetupLogging configures the package-level logrus logger. Unknown levels
// fall back to info.
func SetupLogging(cfg *Config) {
	if cfg.LogFormat == "text" {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
