// cmd/tools/catalog-lint/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"sales-script-workers/internal/catalog"
	"sales-script-workers/internal/common/config"
	"sales-script-workers/internal/common/logger"
)

func main() {
	configPath := flag.String("config", "", "config file (default configs/config.yaml when present)")
	baseURL := flag.String("base", "", "catalog base URL, overrides catalog.base_url")
	dir := flag.String("dir", "", "read documents from this directory instead of downloading them")
	asJSON := flag.Bool("json", false, "print issues as JSON")
	flag.Parse()

	cfg, err := config.LoadUnvalidated(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *baseURL != "" {
		cfg.Catalog.BaseURL = *baseURL
	}

	var fetcher catalog.Fetcher
	if *dir != "" {
		fetcher = catalog.DirFetcher{Root: *dir}
	}
	log := logger.NewStructured("warn", "console")
	loader := catalog.NewLoader(cfg.Catalog, cfg.Matching.DefaultRuleKey, fetcher, log)

	res, err := loader.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	issues := catalog.Lint(res, cfg.Catalog.AliasMap())
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(issues)
	} else {
		for _, is := range issues {
			if is.RuleKey != "" {
				fmt.Printf("%-7s %s: %s\n", is.Severity, is.RuleKey, is.Message)
			} else {
				fmt.Printf("%-7s %s\n", is.Severity, is.Message)
			}
		}
		fmt.Printf("%d rules, %d products, %d phrase blocks, %d issues\n",
			len(res.Catalog.Rules), len(res.Catalog.Products), len(res.Catalog.Phrases), len(issues))
	}

	if catalog.HasErrors(issues) {
		os.Exit(1)
	}
}
