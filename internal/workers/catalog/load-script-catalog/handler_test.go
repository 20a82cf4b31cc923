// internal/workers/catalog/load-script-catalog/handler_test.go
package loadscriptcatalog

import (
	"context"
	"testing"

	"sales-script-workers/internal/catalog"
	"sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Loader
// ==========================

type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context) (*catalog.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Result), args.Error(1)
}

func createTestHandler(t *testing.T, loader Loader) *Handler {
	cfg := LoadConfig()
	cfg.Aliases = map[string]models.ProductAlias{
		"Кредит на карту Прайм Плюс": {Key: "prime_plus", Title: "Прайм Плюс"},
	}
	return NewHandler(cfg, loader, nil, logger.NewTestLogger(t))
}

// ==========================
// Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	loader := new(MockLoader)
	loaded := &catalog.Result{
		Catalog: models.Catalog{
			Phrases: models.PhraseCatalog{"greeting": {"Здравствуйте, {{Имя}}!"}},
			Rules: []models.Rule{{
				Key:           "vip",
				Priority:      models.IntPtr(1),
				Trigger:       &models.TriggerSpec{ClientCategory: "VIP"},
				TargetProduct: "Кредит на карту Прайм Плюс",
				PhraseBlocks:  []string{"greeting"},
			}},
			DefaultRule: &models.Rule{Key: "default", TargetProduct: "prime_plus", PhraseBlocks: []string{"greeting"}},
			Products:    models.ProductCatalog{"prime_plus": {Rate: models.Value(9.9)}},
		},
		Skipped: []catalog.SkippedEntry{{Key: "broken", Reason: "priority is required"}},
	}
	loader.On("Load", mock.Anything).Return(loaded, nil).Once()

	out, err := createTestHandler(t, loader).Execute(context.Background(), &Input{})
	require.NoError(t, err)

	assert.Equal(t, loaded.Catalog, out.Catalog)
	assert.Equal(t, loaded.Skipped, out.SkippedRules)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, catalog.SeverityError, out.Issues[0].Severity)
	assert.Equal(t, "broken", out.Issues[0].RuleKey)
	loader.AssertExpectations(t)
}

func TestHandler_Execute_FetchFailure(t *testing.T) {
	loader := new(MockLoader)
	fetchErr := errors.NewCatalogFetchFailedError("phrases.json", assert.AnError)
	loader.On("Load", mock.Anything).Return(nil, fetchErr).Once()

	out, err := createTestHandler(t, loader).Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.HasCode(err, errors.ErrCodeCatalogFetchFailed))
	assert.ErrorIs(t, err, ErrCatalogUnavailable)

	bpmn := errors.ConvertToBPMNError(errors.AsStandardError(err))
	assert.Zero(t, bpmn.Retries, "catalog downloads are never retried")
	loader.AssertExpectations(t)
}
