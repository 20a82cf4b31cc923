// internal/workers/scripts/select-rules/config.go
package selectrules

import "time"

type Config struct {
	Mode               string // all | first
	EmptyTriggerPolicy string // catch_all | never
	MaxRules           int    // 0 = no limit
	Timeout            time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Mode:               "all",
		EmptyTriggerPolicy: "catch_all",
		Timeout:            10 * time.Second,
	}
}
