// internal/common/camunda/client.go
package camunda

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"sales-script-workers/internal/common/config"
	"sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client wraps the Zeebe gRPC client.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	Retry                  RetryConfig
}

// RetryConfig is an exponential backoff: BaseDelay doubles per attempt up to MaxDelay.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// ConfigFrom builds the client configuration from the camunda section.
func ConfigFrom(cfg config.CamundaConfig) *ClientConfig {
	requestTimeout := config.GetDuration(cfg.RequestTimeout)
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
		RequestTimeout:         requestTimeout,
		Retry:                  DefaultRetryConfig,
	}
}

// NewClient connects to the gateway, retrying while the broker is unreachable.
func NewClient(ctx context.Context, cfg *ClientConfig, log logger.Logger) (*Client, error) {
	var zeebeClient zbc.Client

	err := Retry(ctx, cfg.Retry, log, "zeebe connect", func(ctx context.Context) error {
		c, err := zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.GatewayAddress,
			UsePlaintextConnection: cfg.UsePlaintextConnection,
		})
		if err != nil {
			return err
		}

		topoCtx, cancel := context.WithTimeout(ctx, cfg.ConnectionTimeout)
		defer cancel()
		if _, err := c.NewTopologyCommand().Send(topoCtx); err != nil {
			_ = c.Close()
			return fmt.Errorf("broker at %s: %w", cfg.GatewayAddress, err)
		}

		zeebeClient = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Client{client: zeebeClient, config: cfg}, nil
}

// Zeebe returns the raw client for opening job workers.
func (c *Client) Zeebe() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck asks the gateway for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return MapError(err, "topology")
	}
	return nil
}

// Retry runs fn until it succeeds, a non-transient error occurs or the attempts
// run out. The final error is mapped to a StandardError.
func Retry(ctx context.Context, rc RetryConfig, log logger.Logger, operation string, fn func(context.Context) error) error {
	attempts := rc.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	delay := rc.BaseDelay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !IsTransient(err) || attempt == attempts {
			break
		}

		log.Warn(operation+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt,
			"maxRetries":  attempts,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return errors.NewTimeoutError(operation, fmt.Errorf("cancelled after %d attempts: %w", attempt, ctx.Err()))
		}

		delay *= 2
		if rc.MaxDelay > 0 && delay > rc.MaxDelay {
			delay = rc.MaxDelay
		}
	}
	return MapError(err, operation)
}

var transientPhrases = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"deadline exceeded",
	"unavailable",
	"unreachable",
	"broken pipe",
}

// IsTransient reports whether err is worth retrying. gRPC status codes are used
// when present; otherwise the message is inspected.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			return true
		default:
			return false
		}
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range transientPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// MapError converts a gateway error into a StandardError.
func MapError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if se := (*errors.StandardError)(nil); stderrors.As(err, &se) {
		return se
	}

	wrapped := fmt.Errorf("zeebe %s: %w", operation, err)

	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		switch s.Code() {
		case codes.DeadlineExceeded:
			return errors.NewTimeoutError("zeebe", wrapped)
		case codes.NotFound:
			return errors.NewResourceNotFoundError("zeebe", wrapped.Error())
		case codes.AlreadyExists, codes.FailedPrecondition, codes.InvalidArgument:
			return errors.NewBusinessRuleError("Zeebe rejected "+operation, wrapped.Error())
		default:
			return errors.NewExternalServiceError("zeebe", wrapped)
		}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return errors.NewTimeoutError("zeebe", wrapped)
	case strings.Contains(lower, "not found"):
		return errors.NewResourceNotFoundError("zeebe", wrapped.Error())
	case strings.Contains(lower, "already exists"):
		return errors.NewBusinessRuleError("Zeebe rejected "+operation, wrapped.Error())
	default:
		return errors.NewExternalServiceError("zeebe", wrapped)
	}
}
