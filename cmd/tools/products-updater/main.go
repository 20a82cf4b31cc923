// cmd/tools/products-updater/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"time"

	"sales-script-workers/internal/catalog/productsync"
	commonhttp "sales-script-workers/internal/common/http"
	"sales-script-workers/internal/common/logger"
)

func main() {
	out := flag.String("out", "data/products.json", "products.json to update in place")
	origin := flag.String("origin", productsync.DefaultOrigin, "site root visited first to obtain cookies")
	timeout := flag.Duration("timeout", 30*time.Second, "timeout per page")
	dryRun := flag.Bool("dry-run", false, "print the merged document instead of writing it")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logger.NewStructured(*level, "console")

	if err := run(*out, *origin, *timeout, *dryRun, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(out, origin string, timeout time.Duration, dryRun bool, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	existing, err := os.ReadFile(out)
	if errors.Is(err, fs.ErrNotExist) {
		existing = []byte("{}")
	} else if err != nil {
		return fmt.Errorf("read %s: %w", out, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	opts := append(productsync.BrowserOptions(), commonhttp.WithHTTPClient(&http.Client{Jar: jar, Timeout: timeout}))
	client := commonhttp.NewClient(timeout, opts...)

	entries, err := productsync.NewSyncer(client, origin, log).Sync(ctx, productsync.DefaultSources)
	if err != nil {
		return err
	}

	merged, err := productsync.Merge(existing, entries)
	if err != nil {
		return err
	}
	if dryRun {
		_, err = os.Stdout.Write(merged)
		return err
	}

	if err := os.WriteFile(out, merged, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Info("products updated", map[string]interface{}{"file": out, "products": len(entries)})
	return nil
}
