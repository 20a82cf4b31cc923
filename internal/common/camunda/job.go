// internal/common/camunda/job.go
package camunda

import (
	"context"
	"time"

	"sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/common/metrics"
	"sales-script-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// JobRunner carries the bookkeeping shared by every handler: logging, metrics,
// the timeout, completion and error reporting.
type JobRunner struct {
	TaskType string
	Timeout  time.Duration
	Logger   logger.Logger
	Errors   *errors.ErrorHandler
	Obs      *observability.Observability
}

func NewJobRunner(taskType string, timeout time.Duration, log logger.Logger, obs *observability.Observability) *JobRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JobRunner{
		TaskType: taskType,
		Timeout:  timeout,
		Logger:   log,
		Errors:   errors.NewErrorHandler(log),
		Obs:      obs,
	}
}

// Run executes fn for the job and completes it with fn's output, or reports
// fn's error through the ErrorHandler.
func (r *JobRunner) Run(client worker.JobClient, job entities.Job, fn func(ctx context.Context) (interface{}, error)) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.TaskType).Dec()

	r.Logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()

	output, err := fn(ctx)
	if err == nil {
		err = r.complete(ctx, client, job, output)
		if err != nil {
			err = MapError(err, "complete job")
		}
	}

	code, status := "", "completed"
	if err != nil {
		code, status = string(errors.AsStandardError(err).Code), "failed"
		r.Errors.HandleJobError(ctx, client, job, err)
	} else {
		r.Logger.Info("job completed", map[string]interface{}{
			"jobKey":     job.Key,
			"durationMs": time.Since(start).Milliseconds(),
		})
	}

	metrics.Job(r.TaskType, time.Since(start).Seconds(), code)
	r.Obs.RecordJobProcessed(ctx, r.TaskType, status)
	r.Obs.RecordJobDuration(ctx, r.TaskType, time.Since(start), status)
}

func (r *JobRunner) complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		return errors.NewGenerationFailedError(err)
	}
	_, err = cmd.Send(ctx)
	return err
}
