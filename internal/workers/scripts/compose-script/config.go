// internal/workers/scripts/compose-script/config.go
package composescript

import (
	"time"

	"sales-script-workers/internal/models"
)

type Config struct {
	Aliases            map[string]models.ProductAlias
	ExcludeUsedPhrases bool
	Timeout            time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ExcludeUsedPhrases: true,
		Timeout:            5 * time.Second,
	}
}
