// internal/workers/scripts/select-rules/handler.go
package selectrules

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"sales-script-workers/internal/catalog"
	"sales-script-workers/internal/common/camunda"
	"sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/common/metrics"
	"sales-script-workers/internal/common/observability"
	"sales-script-workers/internal/models"
	"sales-script-workers/internal/scripting"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "select-rules"

var ErrVariablesMalformed = stderrors.New("VARIABLES_MALFORMED")

type Handler struct {
	config  *Config
	matcher *scripting.Matcher
	logger  logger.Logger
	runner  *camunda.JobRunner
}

// NewHandler fails on an unknown matching mode or empty-trigger policy.
func NewHandler(config *Config, obs *observability.Observability, log logger.Logger) (*Handler, error) {
	matcher, err := scripting.NewMatcher(config.Mode, config.EmptyTriggerPolicy)
	if err != nil {
		return nil, err
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		matcher: matcher,
		logger:  log,
		runner:  camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
	}, nil
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
	input.ClientProfile = models.NormalizeProfile(input.ClientProfile)
	return &input, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	cat := input.Catalog
	client := catalog.InferCategories(input.ClientProfile, cat.Partners)

	selected := h.matcher.SelectRules(cat.Rules, cat.DefaultRule, client)
	metrics.RulesMatched.Observe(float64(len(selected)))
	if h.config.MaxRules > 0 && len(selected) > h.config.MaxRules {
		selected = selected[:h.config.MaxRules]
	}

	out := &Output{
		SelectedRules: selected,
		RuleKeys:      make([]string, 0, len(selected)),
		ClientProfile: client,
	}
	for _, r := range selected {
		out.RuleKeys = append(out.RuleKeys, r.Key)
	}
	out.UsedDefault = usedDefault(selected, cat.DefaultRule)
	if len(selected) == 0 {
		out.Message = scripting.NoRecommendationsMessage
		out.SelectedRules = []models.Rule{}
	}

	h.logger.Debug("rules selected", map[string]interface{}{
		"rules":       out.RuleKeys,
		"usedDefault": out.UsedDefault,
	})
	return out, nil
}

func usedDefault(selected []models.Rule, def *models.Rule) bool {
	return def != nil && len(selected) == 1 && selected[0].Key == def.Key
}
