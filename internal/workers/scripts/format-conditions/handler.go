// internal/workers/scripts/format-conditions/handler.go
package formatconditions

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"sales-script-workers/internal/catalog"
	"sales-script-workers/internal/common/camunda"
	"sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/common/observability"
	"sales-script-workers/internal/scripting"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "format-conditions"

var (
	ErrVariablesMalformed = stderrors.New("VARIABLES_MALFORMED")
	ErrProductMissing     = stderrors.New("PRODUCT_MISSING")
)

type Handler struct {
	config *Config
	logger logger.Logger
	runner *camunda.JobRunner
}

func NewHandler(config *Config, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		logger: log,
		runner: camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context) (interface{}, error) {
		input, err := h.parseInput(job)
		if err != nil {
			return nil, err
		}
		return h.Execute(ctx, input)
	})
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidInputErrorFrom(fmt.Errorf("%w: %v", ErrVariablesMalformed, err))
	}
	if input.Product == nil && strings.TrimSpace(input.ProductName) == "" {
		return nil, errors.NewInvalidInputErrorFrom(fmt.Errorf("%w: product or productName is required", ErrProductMissing))
	}
	return &input, nil
}

// Execute never fails for an unknown product: the conditions then carry the
// fallback rate.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{}
	product := input.Product

	if product == nil {
		resolved := catalog.ResolveProduct(strings.TrimSpace(input.ProductName), h.config.Aliases, input.Products)
		product = resolved.Product
		out.ProductKey, out.Title = resolved.Key, resolved.Title
		if product == nil {
			h.logger.Warn("product not found in catalog", map[string]interface{}{"product": input.ProductName})
		}
	}

	out.Found = product != nil
	out.Conditions = scripting.FormatConditions(product)
	if product != nil {
		out.Rate = scripting.FormatRate(product.Rate)
		out.Term = scripting.FormatTerm(product.Term)
	} else {
		out.Rate = scripting.FormatRate(nil)
		out.Term = scripting.FormatTerm(nil)
	}
	return out, nil
}
