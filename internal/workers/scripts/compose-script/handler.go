// internal/workers/scripts/compose-script/handler.go
package composescript

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"sales-script-workers/internal/catalog"
	"sales-script-workers/internal/common/camunda"
	"sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/common/observability"
	"sales-script-workers/internal/models"
	"sales-script-workers/internal/scripting"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "compose-script"

var (
	ErrVariablesMalformed = stderrors.New("VARIABLES_MALFORMED")
	ErrRuleMissing        = stderrors.New("RULE_MISSING")
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
	if input.Rule == nil {
		return nil, errors.NewInvalidInputErrorFrom(fmt.Errorf("%w: rule is required", ErrRuleMissing))
	}
	input.ClientProfile = models.NormalizeProfile(input.ClientProfile)
	return &input, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	rule := *input.Rule
	cat := input.Catalog

	index := input.Index
	if index <= 0 {
		index = 1
	}

	var rnd scripting.RandomSource
	if input.Seed != nil {
		rnd = scripting.NewRand(*input.Seed)
	}
	composer := scripting.NewComposer(rnd, h.config.ExcludeUsedPhrases)

	resolved := catalog.ResolveProduct(rule.TargetProduct, h.config.Aliases, cat.Products)
	if resolved.Product == nil && rule.TargetProduct != "" {
		h.logger.Warn("product not found in catalog", map[string]interface{}{
			"ruleKey": rule.Key,
			"product": rule.TargetProduct,
		})
	}

	title := scripting.Title(index, resolved.Title)
	conditions := scripting.FormatConditions(resolved.Product)
	script := composer.Compose(rule, cat.Phrases, resolved.Product, input.ClientProfile)

	return &Output{
		Script: script,
		Fragment: scripting.Fragment{
			Index:      index,
			RuleKey:    rule.Key,
			Product:    resolved.Key,
			Title:      title,
			Conditions: conditions,
			Script:     script,
			HTML:       scripting.RenderFragment(title, conditions, script),
		},
	}, nil
}
