// internal/workers/scripts/generate-scripts/handler.go
package generatescripts

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"

	"sales-script-workers/internal/common/camunda"
	"sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/common/observability"
	"sales-script-workers/internal/generation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "generate-scripts"

var (
	ErrVariablesMalformed = stderrors.New("VARIABLES_MALFORMED")
	ErrSchemaViolation    = stderrors.New("SCHEMA_VIOLATION")
)

// Generator runs a whole generation. *generation.Pipeline satisfies it.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Result, error)
}

type Handler struct {
	config    *Config
	generator Generator
	logger    logger.Logger
	runner    *camunda.JobRunner
}

func NewHandler(config *Config, generator Generator, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:    config,
		generator: generator,
		logger:    log,
		runner:    camunda.NewJobRunner(TaskType, config.Timeout, log, obs),
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
	raw := []byte(job.Variables)
	if err := validateVariables(raw); err != nil {
		return nil, err
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInvalidInputErrorFrom(fmt.Errorf("%w: %v", ErrVariablesMalformed, err))
	}
	if input.SessionID == "" && h.config.SessionFromProcess && job.ProcessInstanceKey != 0 {
		input.SessionID = "process-" + strconv.FormatInt(job.ProcessInstanceKey, 10)
	}
	return &input, nil
}

// Execute returns GENERATION_SUPERSEDED when a newer generation for the same
// session started meanwhile; that error is thrown to the process, not retried.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.generator.Generate(ctx, generation.Request{
		SessionID: input.SessionID,
		PageHTML:  input.PageHTML,
		Profile:   input.ClientProfile,
		Seed:      input.Seed,
		Source:    "worker",
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		GenerationID:    res.GenerationID,
		Scripts:         res.Scripts,
		ScriptsHTML:     res.HTML,
		MatchedRules:    res.MatchedRules,
		UsedDefault:     res.UsedDefault,
		Message:         res.Message,
		ClientProfile:   res.Client,
		SkippedRules:    res.Skipped,
		SkippedProducts: res.SkippedProducts,
	}, nil
}
