package config

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies LOG_LEVEL and LOG_FORMAT (text or json) to the standard logrus logger.
func ConfigureLogging(fallback log.Level) error {
	level := fallback
	if name := os.Getenv("LOG_LEVEL"); name != "" {
		parsed, err := log.ParseLevel(name)
		if err != nil {
			return err
		}
		level = parsed
	}
	log.SetLevel(level)

	switch format := os.Getenv("LOG_FORMAT"); format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", format)
	}
	return nil
}
