// internal/common/config/loader.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const DefaultCatalogBaseURL = "https://raw.githubusercontent.com/Wooinpoorin/sovcombank-scripts/main/data/"

// Load reads configs/config.yaml (optional), merges config.<APP_ENVIRONMENT> on top,
// expands ${VAR} references and applies environment overrides such as CATALOG_BASE_URL.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName("config." + env)
	_ = v.MergeInConfig() // the environment file is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

// LoadUnvalidated reads path, or configs/config.yaml when path is empty, without
// requiring the broker and redis settings. Offline tools use it for the catalog section.
func LoadUnvalidated(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
	}
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	expandEnvVars(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sales-script-workers")
	v.SetDefault("app.environment", "development")

	v.SetDefault("camunda.broker_address", "")
	v.SetDefault("camunda.max_jobs_active", 10)
	v.SetDefault("camunda.timeout", 30000)
	v.SetDefault("camunda.request_timeout", 30000)

	v.SetDefault("database.redis.address", "")
	v.SetDefault("database.redis.password", "")
	v.SetDefault("database.redis.db", 0)

	v.SetDefault("catalog.base_url", DefaultCatalogBaseURL)
	v.SetDefault("catalog.files.phrases", "phrases.json")
	v.SetDefault("catalog.files.rules", "rules.json")
	v.SetDefault("catalog.files.products", "products.json")
	v.SetDefault("catalog.files.partners", "")
	v.SetDefault("catalog.timeout", 10000)
	v.SetDefault("catalog.product_aliases", []map[string]interface{}{
		{"target": "Кредит на карту Прайм Плюс", "key": "prime_plus", "title": "Кредит на карту «Прайм Плюс»"},
		{"target": "Кредит под залог автомобиля", "key": "car_pledge_loan", "title": "Кредит под залог автомобиля"},
		{"target": "Кредит под залог недвижимости", "key": "real_estate_pledge_loan", "title": "Кредит под залог недвижимости"},
	})

	v.SetDefault("matching.mode", "all")
	v.SetDefault("matching.empty_trigger_policy", "catch_all")
	v.SetDefault("matching.default_rule_key", "default")

	v.SetDefault("composer.exclude_used_phrases", true)
	v.SetDefault("composer.max_scripts", 0)

	v.SetDefault("generation.session_ttl", 300000)
	v.SetDefault("generation.timeout", 30000)

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 10000)
	v.SetDefault("server.write_timeout", 30000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// loadEnvFile loads the first .env found near the working directory or the module root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env", // tests in test/e2e/
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars replaces ${VAR} references in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
			v.Set(key, expanded)
		}
	}
}

// applyDefaults fills values that the yaml may have zeroed explicitly.
func applyDefaults(cfg *Config) {
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Catalog.Timeout <= 0 {
		cfg.Catalog.Timeout = 10000
	}
	if cfg.Catalog.BaseURL != "" && !strings.HasSuffix(cfg.Catalog.BaseURL, "/") {
		cfg.Catalog.BaseURL += "/"
	}

	cfg.Matching.Mode = strings.ToLower(strings.TrimSpace(cfg.Matching.Mode))
	cfg.Matching.EmptyTriggerPolicy = strings.ToLower(strings.TrimSpace(cfg.Matching.EmptyTriggerPolicy))
	if cfg.Matching.DefaultRuleKey == "" {
		cfg.Matching.DefaultRuleKey = "default"
	}

	if cfg.Generation.SessionTTL <= 0 {
		cfg.Generation.SessionTTL = 300000
	}
	if cfg.Generation.Timeout <= 0 {
		cfg.Generation.Timeout = 30000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	u, err := url.Parse(cfg.Catalog.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("catalog.base_url must be an absolute http(s) URL, got %q", cfg.Catalog.BaseURL)
	}
	if cfg.Catalog.Files.Phrases == "" || cfg.Catalog.Files.Rules == "" || cfg.Catalog.Files.Products == "" {
		return fmt.Errorf("catalog.files.phrases, rules and products are required")
	}

	switch cfg.Matching.Mode {
	case "", "all", "first":
	default:
		return fmt.Errorf("matching.mode must be all or first, got %q", cfg.Matching.Mode)
	}
	switch cfg.Matching.EmptyTriggerPolicy {
	case "", "catch_all", "never":
	default:
		return fmt.Errorf("matching.empty_trigger_policy must be catch_all or never, got %q", cfg.Matching.EmptyTriggerPolicy)
	}

	if cfg.Composer.MaxScripts < 0 {
		return fmt.Errorf("composer.max_scripts must not be negative")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
