// internal/catalog/loader.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sales-script-workers/internal/common/config"
	apperrors "sales-script-workers/internal/common/errors"
	commonhttp "sales-script-workers/internal/common/http"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/common/metrics"
	"sales-script-workers/internal/models"

	"golang.org/x/sync/errgroup"
)

// maxDocumentSize caps a single catalog download.
const maxDocumentSize = 8 << 20

// Fetcher downloads one document. *http.Client from internal/common/http satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string, limit int64) ([]byte, error)
}

type Loader struct {
	baseURL        string
	files          config.CatalogFiles
	defaultRuleKey string
	client         Fetcher
	logger         logger.Logger
}

func NewLoader(cfg config.CatalogConfig, defaultRuleKey string, client Fetcher, log logger.Logger) *Loader {
	if client == nil {
		client = commonhttp.NewClient(config.GetDuration(cfg.Timeout))
	}
	if defaultRuleKey == "" {
		defaultRuleKey = models.DefaultRuleKey
	}
	base := cfg.BaseURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Loader{
		baseURL:        base,
		files:          cfg.Files,
		defaultRuleKey: defaultRuleKey,
		client:         client,
		logger:         log.WithFields(map[string]interface{}{"component": "catalog-loader"}),
	}
}

// Result is a loaded catalog plus the entries dropped while decoding it.
type Result struct {
	Catalog         models.Catalog
	Skipped         []SkippedEntry
	SkippedProducts []SkippedEntry
	DuplicateRules  []string
}

// Load downloads all configured documents concurrently. The first failure cancels
// the remaining downloads and is returned as CATALOG_FETCH_FAILED or
// CATALOG_DECODE_FAILED. Nothing is retried.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		phrases  models.PhraseCatalog
		rules    *RuleSet
		products *ProductSet
		partners models.PartnerMap
	)

	g.Go(func() error {
		data, err := l.fetch(gctx, l.files.Phrases)
		if err != nil {
			return err
		}
		if phrases, err = DecodePhrases(data); err != nil {
			return apperrors.NewCatalogDecodeFailedError(l.files.Phrases, describe(l.files.Phrases, err))
		}
		return nil
	})

	g.Go(func() error {
		data, err := l.fetch(gctx, l.files.Rules)
		if err != nil {
			return err
		}
		if rules, err = DecodeRules(data, l.defaultRuleKey); err != nil {
			return apperrors.NewCatalogDecodeFailedError(l.files.Rules, describe(l.files.Rules, err))
		}
		return nil
	})

	g.Go(func() error {
		data, err := l.fetch(gctx, l.files.Products)
		if err != nil {
			return err
		}
		if products, err = DecodeProducts(data); err != nil {
			return apperrors.NewCatalogDecodeFailedError(l.files.Products, describe(l.files.Products, err))
		}
		return nil
	})

	if l.files.Partners != "" {
		g.Go(func() error {
			data, err := l.fetch(gctx, l.files.Partners)
			if err != nil {
				return err
			}
			if partners, err = DecodePartners(data); err != nil {
				return apperrors.NewCatalogDecodeFailedError(l.files.Partners, describe(l.files.Partners, err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range rules.Skipped {
		metrics.RulesSkipped.WithLabelValues("schema").Inc()
		l.logger.Warn("skipping malformed rule", map[string]interface{}{
			"ruleKey": s.Key,
			"reason":  s.Reason,
		})
	}
	for _, key := range rules.Duplicates {
		metrics.RulesSkipped.WithLabelValues("duplicate").Inc()
		l.logger.Warn("duplicate rule key, last definition wins", map[string]interface{}{"ruleKey": key})
	}
	for _, s := range products.Skipped {
		l.logger.Warn("skipping malformed product", map[string]interface{}{
			"product": s.Key,
			"reason":  s.Reason,
		})
	}

	l.logger.Debug("catalog loaded", map[string]interface{}{
		"rules":    len(rules.Rules),
		"default":  rules.Default != nil,
		"products": len(products.Products),
		"blocks":   len(phrases),
		"partners": len(partners),
	})

	return &Result{
		Catalog: models.Catalog{
			Phrases:     phrases,
			Rules:       rules.Rules,
			DefaultRule: rules.Default,
			Products:    products.Products,
			Partners:    partners,
		},
		Skipped:         rules.Skipped,
		SkippedProducts: products.Skipped,
		DuplicateRules:  rules.Duplicates,
	}, nil
}

func (l *Loader) fetch(ctx context.Context, file string) ([]byte, error) {
	start := time.Now()
	data, err := l.client.Get(ctx, l.baseURL+file, maxDocumentSize)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.CatalogFetchDuration.WithLabelValues(file, status).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, apperrors.NewCatalogFetchFailedError(file, fetchError(file, err))
	}
	return data, nil
}

// fetchError renders the message shown to the employee, e.g. "rules.json загрузка: 404".
func fetchError(file string, err error) error {
	var statusErr *commonhttp.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%s загрузка: %d", file, statusErr.StatusCode)
	}
	return fmt.Errorf("%s загрузка: %w", file, err)
}
