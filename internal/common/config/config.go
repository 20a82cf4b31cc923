// internal/common/config/config.go
package config

import (
	"strings"

	"sales-script-workers/internal/models"
)

type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Catalog    CatalogConfig           `mapstructure:"catalog"`
	Matching   MatchingConfig          `mapstructure:"matching"`
	Composer   ComposerConfig          `mapstructure:"composer"`
	Generation GenerationConfig        `mapstructure:"generation"`
	Server     ServerConfig            `mapstructure:"server"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Logging    LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CatalogConfig points at the remote JSON documents.
type CatalogConfig struct {
	BaseURL        string               `mapstructure:"base_url"`
	Files          CatalogFiles         `mapstructure:"files"`
	Timeout        int                  `mapstructure:"timeout"` // milliseconds
	ProductAliases []ProductAliasConfig `mapstructure:"product_aliases"`
}

// CatalogFiles holds document names relative to BaseURL. An empty Partners disables
// merchant-name category inference.
type CatalogFiles struct {
	Phrases  string `mapstructure:"phrases"`
	Rules    string `mapstructure:"rules"`
	Products string `mapstructure:"products"`
	Partners string `mapstructure:"partners"`
}

// ProductAliasConfig maps a rule's target product to a catalog key and display title.
type ProductAliasConfig struct {
	Target string `mapstructure:"target"`
	Key    string `mapstructure:"key"`
	Title  string `mapstructure:"title"`
}

type MatchingConfig struct {
	Mode               string `mapstructure:"mode"`                 // all | first
	EmptyTriggerPolicy string `mapstructure:"empty_trigger_policy"` // catch_all | never
	DefaultRuleKey     string `mapstructure:"default_rule_key"`
}

type ComposerConfig struct {
	ExcludeUsedPhrases bool `mapstructure:"exclude_used_phrases"`
	MaxScripts         int  `mapstructure:"max_scripts"` // 0 = no limit
}

type GenerationConfig struct {
	SessionTTL int `mapstructure:"session_ttl"` // milliseconds
	Timeout    int `mapstructure:"timeout"`     // milliseconds
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// AliasMap indexes the configured aliases by target product name.
func (c CatalogConfig) AliasMap() map[string]models.ProductAlias {
	out := make(map[string]models.ProductAlias, len(c.ProductAliases))
	for _, a := range c.ProductAliases {
		target := strings.TrimSpace(a.Target)
		if target == "" {
			continue
		}
		out[target] = models.ProductAlias{Key: a.Key, Title: a.Title}
	}
	return out
}

// FileNames lists the configured documents in fetch order, skipping empty names.
func (f CatalogFiles) FileNames() []string {
	names := make([]string, 0, 4)
	for _, n := range []string{f.Phrases, f.Rules, f.Products, f.Partners} {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}
