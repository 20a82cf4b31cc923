// internal/workers/scripts/generate-scripts/handler_test.go
package generatescripts

import (
	"context"
	"encoding/json"
	"testing"

	"sales-script-workers/internal/catalog"
	"sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/generation"
	"sales-script-workers/internal/models"
	"sales-script-workers/internal/scripting"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
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

// ==========================
// Test Helper Functions
// ==========================

func createTestHandler(t *testing.T, gen Generator) *Handler {
	return NewHandler(LoadConfig(), gen, nil, logger.NewTestLogger(t))
}

func createMockJob(variables map[string]interface{}) entities.Job {
	varsJSON, _ := json.Marshal(variables)
	return entities.Job{
		ActivatedJob: &pb.ActivatedJob{
			Key:                1,
			Type:               TaskType,
			ProcessInstanceKey: 100,
			Variables:          string(varsJSON),
			Retries:            3,
		},
	}
}

func sampleResult() *generation.Result {
	title := "1. Кредит на карту «Прайм Плюс»"
	conditions := "Предварительные условия: ставка 9.9%, срок 60 мес."
	script := "Иван Иванович, добрый день!"
	fragment := scripting.RenderFragment(title, conditions, script)
	return &generation.Result{
		GenerationID: "gen-1",
		Client:       models.NewClientProfile("Иванов Иван Иванович", "VIP", 2, nil),
		MatchedRules: []string{"credit_ending"},
		Scripts: []scripting.Fragment{{
			Index: 1, RuleKey: "credit_ending", Product: "prime_plus",
			Title: title, Conditions: conditions, Script: script, HTML: fragment,
		}},
		HTML: fragment,
	}
}

type staticSource struct {
	result *catalog.Result
}

func (s *staticSource) Load(ctx context.Context) (*catalog.Result, error) {
	return s.result, nil
}

func testCatalog() *catalog.Result {
	return &catalog.Result{Catalog: models.Catalog{
		Phrases: models.PhraseCatalog{
			"ending": {"{{Имя}} {{Отчество}}, осталось {{credit_remaining_months}} мес."},
		},
		Rules: []models.Rule{{
			Key:          "credit_ending",
			Priority:     models.IntPtr(20),
			Trigger:      &models.TriggerSpec{MaxRemainingCreditMonths: models.IntPtr(3)},
			PhraseBlocks: []string{"ending"},
		}},
	}}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	gen := new(MockGenerator)
	profile := models.NewClientProfile("Иванов Иван Иванович", "VIP", 2, nil)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(req generation.Request) bool {
		return req.SessionID == "tab-1" && req.Source == "worker" && req.Profile != nil
	})).Return(sampleResult(), nil).Once()

	out, err := createTestHandler(t, gen).Execute(context.Background(), &Input{SessionID: "tab-1", ClientProfile: &profile})
	require.NoError(t, err)

	assert.Equal(t, "gen-1", out.GenerationID)
	assert.Equal(t, []string{"credit_ending"}, out.MatchedRules)
	require.Len(t, out.Scripts, 1)
	assert.Equal(t, out.Scripts[0].HTML, out.ScriptsHTML)
	assert.Equal(t, "Иван", out.ClientProfile.FirstName)
	gen.AssertExpectations(t)
}

func TestHandler_Execute_WithPipeline(t *testing.T) {
	source := &staticSource{result: testCatalog()}
	pipeline := generation.NewPipeline(nil, source, nil, generation.PipelineConfig{}, nil, logger.NewTestLogger(t))

	out, err := createTestHandler(t, pipeline).Execute(context.Background(), &Input{
		PageHTML: `<div class="full-name">Сидорова Анна Петровна</div><div class="credit-remaining-months">1</div>`,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"credit_ending"}, out.MatchedRules)
	assert.False(t, out.UsedDefault)
	require.Len(t, out.Scripts, 1)
	assert.Equal(t, "Анна Петровна, осталось 1 мес.", out.Scripts[0].Script)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Superseded(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(nil, errors.NewGenerationSupersededError("tab-1")).Once()

	out, err := createTestHandler(t, gen).Execute(context.Background(), &Input{SessionID: "tab-1", PageHTML: "<p></p>"})
	require.Error(t, err)
	assert.Nil(t, out)

	bpmn := errors.ConvertToBPMNError(errors.AsStandardError(err))
	assert.Equal(t, string(errors.ErrCodeGenerationSuperseded), bpmn.Code)
	assert.Zero(t, bpmn.Retries)
	gen.AssertExpectations(t)
}

func TestHandler_ParseInput(t *testing.T) {
	tests := []struct {
		name        string
		vars        map[string]interface{}
		wantErr     bool
		wantSession string
	}{
		{
			name:        "profile",
			vars:        map[string]interface{}{"clientProfile": map[string]interface{}{"fullName": "Иванов Иван Иванович"}},
			wantSession: "process-100",
		},
		{
			name:        "page with session",
			vars:        map[string]interface{}{"pageHtml": "<div></div>", "sessionId": "tab-9"},
			wantSession: "tab-9",
		},
		{name: "neither", vars: map[string]interface{}{"sessionId": "tab-9"}, wantErr: true},
		{name: "blank page", vars: map[string]interface{}{"pageHtml": "  \n "}, wantErr: true},
		{name: "negative seed", vars: map[string]interface{}{"pageHtml": "<p></p>", "seed": -1}, wantErr: true},
		{name: "profile not an object", vars: map[string]interface{}{"clientProfile": "VIP"}, wantErr: true},
	}

	h := createTestHandler(t, new(MockGenerator))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(createMockJob(tt.vars))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
				assert.ErrorIs(t, err, ErrSchemaViolation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSession, input.SessionID)
		})
	}
}
