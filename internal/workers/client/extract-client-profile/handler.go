// internal/workers/client/extract-client-profile/handler.go
package extractclientprofile

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"sales-script-workers/internal/common/camunda"
	"sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/common/observability"
	"sales-script-workers/internal/profile"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "extract-client-profile"

var (
	ErrVariablesMalformed = stderrors.New("VARIABLES_MALFORMED")
	ErrPageHTMLMissing    = stderrors.New("PAGE_HTML_MISSING")
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
	if strings.TrimSpace(input.PageHTML) == "" {
		return nil, errors.NewInvalidInputErrorFrom(fmt.Errorf("%w: pageHtml is required", ErrPageHTMLMissing))
	}
	return &input, nil
}

// Execute never fails on missing page elements; they yield empty values.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	sel := h.config.Selectors
	if input.Selectors != nil {
		sel = *input.Selectors
	}

	client, err := profile.ExtractString(input.PageHTML, sel)
	if err != nil {
		return nil, err
	}

	if client.FullName == "" {
		h.logger.Warn("client name not found on page", nil)
	}
	h.logger.Debug("client profile extracted", map[string]interface{}{
		"category":   client.Category,
		"operations": len(client.Operations),
	})
	return &Output{ClientProfile: client}, nil
}
