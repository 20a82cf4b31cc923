// internal/workers/catalog/load-script-catalog/handler.go
package loadscriptcatalog

import (
	"context"
	"errors"
	"fmt"

	"sales-script-workers/internal/catalog"
	"sales-script-workers/internal/common/camunda"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "load-script-catalog"

var ErrCatalogUnavailable = errors.New("CATALOG_UNAVAILABLE")

// Loader fetches the catalog documents. *catalog.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context) (*catalog.Result, error)
}

type Handler struct {
	config *Config
	loader Loader
	logger logger.Logger
	runner *camunda.JobRunner
}

func NewHandler(config *Config, loader Loader, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		loader: loader,
		logger: log,
		runner: camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context) (interface{}, error) {
		return h.Execute(ctx, &Input{})
	})
}

// Execute loads every document; any failed download fails the job.
func (h *Handler) Execute(ctx context.Context, _ *Input) (*Output, error) {
	res, err := h.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	issues := catalog.Lint(res, h.config.Aliases)
	for _, is := range issues {
		h.logger.Debug("catalog issue", map[string]interface{}{
			"severity": string(is.Severity),
			"ruleKey":  is.RuleKey,
			"message":  is.Message,
		})
	}

	return &Output{
		Catalog:         res.Catalog,
		SkippedRules:    res.Skipped,
		SkippedProducts: res.SkippedProducts,
		Issues:          issues,
	}, nil
}
