// internal/workers/catalog/load-script-catalog/config.go
package loadscriptcatalog

import (
	"time"

	"sales-script-workers/internal/models"
)

type Config struct {
	// Aliases are used to report rules whose product cannot be resolved.
	Aliases map[string]models.ProductAlias
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
