// internal/workers/client/extract-client-profile/config.go
package extractclientprofile

import (
	"time"

	"sales-script-workers/internal/profile"
)

type Config struct {
	Selectors profile.Selectors
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Selectors: profile.DefaultSelectors,
		Timeout:   10 * time.Second,
	}
}
