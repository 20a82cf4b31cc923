// internal/workers/scripts/format-conditions/config.go
package formatconditions

import (
	"time"

	"sales-script-workers/internal/models"
)

type Config struct {
	Aliases map[string]models.ProductAlias
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}
