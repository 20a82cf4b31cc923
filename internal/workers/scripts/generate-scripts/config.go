// internal/workers/scripts/generate-scripts/config.go
package generatescripts

import "time"

type Config struct {
	// SessionFromProcess uses the process instance key as session id when the
	// job does not name one, so a restarted instance supersedes its older run.
	SessionFromProcess bool
	Timeout            time.Duration
}

func LoadConfig() *Config {
	return &Config{
		SessionFromProcess: true,
		Timeout:            30 * time.Second,
	}
}
