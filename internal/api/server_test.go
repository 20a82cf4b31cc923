// internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/generation"
	"sales-script-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Generator
// ==========================

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req generation.Request) (*generation.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.Result), args.Error(1)
}

func newTestServer(t *testing.T, gen Generator, ready ReadinessCheck) *httptest.Server {
	srv := httptest.NewServer(NewServer(gen, ready, logger.NewTestLogger(t)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url+"/api/v1/scripts/generate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

// ==========================
// Endpoint Tests
// ==========================

func TestServer_Generate_Success(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(req generation.Request) bool {
		return req.Source == "api" && req.SessionID == "tab-1" && req.Profile != nil && req.Profile.Category == "VIP"
	})).Return(&generation.Result{
		Client:       models.NewClientProfile("Иванов Иван Иванович", "VIP", 2, nil),
		MatchedRules: []string{"vip"},
		HTML:         `<div class="script-card"></div>`,
	}, nil).Once()

	srv := newTestServer(t, gen, nil)
	resp, out := post(t, srv.URL, `{"sessionId":"tab-1","clientProfile":{"fullName":"Иванов Иван Иванович","category":"VIP"}}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{"vip"}, out["matchedRules"])
	assert.Equal(t, `<div class="script-card"></div>`, out["html"])
	gen.AssertExpectations(t)
}

func TestServer_Generate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   errors.ErrorCode
		wantUser   string
	}{
		{
			name:       "superseded",
			err:        errors.NewGenerationSupersededError("tab-1"),
			wantStatus: http.StatusConflict,
			wantCode:   errors.ErrCodeGenerationSuperseded,
		},
		{
			name:       "invalid input",
			err:        errors.NewInvalidInputError("clientProfile or pageHtml is required"),
			wantStatus: http.StatusBadRequest,
			wantCode:   errors.ErrCodeInvalidInput,
			wantUser:   "Ошибка генерации: clientProfile or pageHtml is required",
		},
		{
			name:       "catalog",
			err:        errors.NewCatalogFetchFailedError("rules.json", stderrors.New("rules.json загрузка: 404")),
			wantStatus: http.StatusBadGateway,
			wantCode:   errors.ErrCodeCatalogFetchFailed,
		},
		{
			name:       "unexpected",
			err:        stderrors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   errors.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockGenerator)
			gen.On("Generate", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			srv := newTestServer(t, gen, nil)
			resp, out := post(t, srv.URL, `{"pageHtml":"<p></p>"}`)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := out["error"].(map[string]interface{})
			assert.Equal(t, string(tt.wantCode), body["code"])
			assert.True(t, strings.HasPrefix(body["userMessage"].(string), "Ошибка генерации: "))
			if tt.wantUser != "" {
				assert.Equal(t, tt.wantUser, body["userMessage"])
			}
		})
	}
}

func TestServer_Generate_MalformedBody(t *testing.T) {
	gen := new(MockGenerator)
	srv := newTestServer(t, gen, nil)

	resp, out := post(t, srv.URL, `{"clientProfile":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, string(errors.ErrCodeInvalidInput), out["error"].(map[string]interface{})["code"])
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestServer_HealthAndReady(t *testing.T) {
	var readyErr error
	srv := newTestServer(t, new(MockGenerator), func(context.Context) error { return readyErr })

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	readyErr = stderrors.New("redis down")
	resp, err = http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/health", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t, new(MockGenerator), nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(errors.ErrCodeGuardUnavailable))
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(errors.ErrCodeTimeout))
	assert.Equal(t, http.StatusBadRequest, StatusFor(errors.ErrCodeProfileExtractionFailed))
}
