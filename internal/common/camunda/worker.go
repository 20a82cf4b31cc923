// internal/common/camunda/worker.go
package camunda

import (
	"sync"
	"time"

	"sales-script-workers/internal/common/config"
	"sales-script-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler completes or fails the job itself.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Registry opens job workers and closes them together on shutdown.
type Registry struct {
	client zbc.Client
	logger logger.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewRegistry(client zbc.Client, log logger.Logger) *Registry {
	return &Registry{
		client:  client,
		logger:  log.WithFields(map[string]interface{}{"component": "worker-registry"}),
		workers: make(map[string]worker.JobWorker),
	}
}

// Register opens a worker for taskType unless it is disabled. It reports whether
// a worker was opened; a task type is registered at most once.
func (r *Registry) Register(taskType string, wcfg config.WorkerConfig, handler JobHandler) bool {
	if !wcfg.Enabled {
		r.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workers[taskType]; ok {
		return false
	}

	maxJobs := wcfg.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = 10
	}
	step := r.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobs)
	if wcfg.Timeout > 0 {
		step = step.Timeout(time.Duration(wcfg.Timeout) * time.Millisecond)
	}
	r.workers[taskType] = step.Open()

	r.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": maxJobs,
		"timeoutMs":     wcfg.Timeout,
	})
	return true
}

// TaskTypes lists the registered task types.
func (r *Registry) TaskTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.workers))
	for t := range r.workers {
		out = append(out, t)
	}
	return out
}

// Close stops polling and waits for in-flight jobs of every worker.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for taskType, w := range r.workers {
		w.Close()
		w.AwaitClose()
		r.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
	r.workers = make(map[string]worker.JobWorker)
}
