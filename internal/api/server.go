// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/generation"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBody caps the page snapshot a client may post.
const maxRequestBody = 4 << 20

// Generator runs one generation. *generation.Pipeline satisfies it.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Result, error)
}

// ReadinessCheck returns nil when the dependencies needed to serve are reachable.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	generator Generator
	ready     ReadinessCheck
	logger    logger.Logger
}

func NewServer(generator Generator, ready ReadinessCheck, log logger.Logger) *Server {
	return &Server{
		generator: generator,
		ready:     ready,
		logger:    log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Handler routes the health, metrics and generation endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/v1/scripts/generate", s.handleGenerate)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generation.Request
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, errors.NewInvalidInputError("request body: "+err.Error()))
		return
	}
	req.Source = "api"

	res, err := s.generator.Generate(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type errorBody struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	UserMessage string `json:"userMessage"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	se := errors.AsStandardError(err)
	status := StatusFor(se.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("generation failed", map[string]interface{}{
			"errorCode": string(se.Code),
			"error":     err.Error(),
		})
	}
	writeJSON(w, status, map[string]errorBody{"error": {
		Code:        string(se.Code),
		Message:     se.Message,
		UserMessage: errors.UserMessage(err),
	}})
}

// StatusFor maps an error code to the HTTP status of the generate endpoint.
func StatusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeProfileExtractionFailed:
		return http.StatusBadRequest
	case errors.ErrCodeGenerationSuperseded:
		return http.StatusConflict
	case errors.ErrCodeCatalogFetchFailed, errors.ErrCodeCatalogDecodeFailed, errors.ErrCodeExternalService:
		return http.StatusBadGateway
	case errors.ErrCodeGuardUnavailable:
		return http.StatusServiceUnavailable
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// IsServerClosed reports the error http.Server returns after Shutdown.
func IsServerClosed(err error) bool {
	return stderrors.Is(err, http.ErrServerClosed)
}
