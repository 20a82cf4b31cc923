// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"sales-script-workers/internal/api"
	"sales-script-workers/internal/catalog"
	"sales-script-workers/internal/common/config"
	"sales-script-workers/internal/common/database"
	"sales-script-workers/internal/common/errors"
	commonhttp "sales-script-workers/internal/common/http"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/generation"
	"sales-script-workers/internal/models"
	"sales-script-workers/internal/profile"
	ecp "sales-script-workers/internal/workers/client/extract-client-profile"
	lsc "sales-script-workers/internal/workers/catalog/load-script-catalog"
	cs "sales-script-workers/internal/workers/scripts/compose-script"
	fc "sales-script-workers/internal/workers/scripts/format-conditions"
	gs "sales-script-workers/internal/workers/scripts/generate-scripts"
	sr "sales-script-workers/internal/workers/scripts/select-rules"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clientPage = `<html><body>
	<div class="full-name">Иванов Иван Иванович</div>
	<div class="client-category">VIP</div>
	<div class="credit-remaining-months">2 мес.</div>
	<ul class="client-operations">
		<li data-mcc="5541">АЗС Лукойл</li>
		<li data-mcc="5541">АЗС Лукойл</li>
		<li data-mcc="5411">Пятёрочка</li>
	</ul>
</body></html>`

// ==========================
// Environment
// ==========================

// catalogHost serves data/ over HTTP. Files listed in missing answer 404.
type catalogHost struct {
	server   *httptest.Server
	requests atomic.Int64
	missing  map[string]bool
}

func newCatalogHost(t *testing.T) *catalogHost {
	h := &catalogHost{missing: map[string]bool{}}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.requests.Add(1)
		name := filepath.Base(r.URL.Path)
		if h.missing[name] {
			http.NotFound(w, r)
			return
		}
		data, err := os.ReadFile(filepath.Join("..", "..", "data", name))
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}))
	t.Cleanup(h.server.Close)
	return h
}

func (h *catalogHost) config() config.CatalogConfig {
	return config.CatalogConfig{
		BaseURL: h.server.URL + "/data/",
		Files: config.CatalogFiles{
			Phrases:  "phrases.json",
			Rules:    "rules.json",
			Products: "products.json",
			Partners: "partners.json",
		},
		Timeout: 5000,
		ProductAliases: []config.ProductAliasConfig{
			{Target: "Кредит на карту Прайм Плюс", Key: "prime_plus", Title: "Кредит на карту «Прайм Плюс»"},
			{Target: "Кредит под залог автомобиля", Key: "car_pledge_loan", Title: "Кредит под залог автомобиля"},
			{Target: "Кредит под залог недвижимости", Key: "real_estate_pledge_loan", Title: "Кредит под залог недвижимости"},
		},
	}
}

// process is one worker-manager instance: its own coordinator, a shared redis.
type process struct {
	loader   *catalog.Loader
	pipeline *generation.Pipeline
	api      *httptest.Server
}

func newProcess(t *testing.T, host *catalogHost, redis *database.RedisClient, wrap func(generation.CatalogSource) generation.CatalogSource) *process {
	log := logger.NewTestLogger(t)
	cat := host.config()

	loader := catalog.NewLoader(cat, "", commonhttp.NewClient(5*time.Second), log)
	var source generation.CatalogSource = loader
	if wrap != nil {
		source = wrap(loader)
	}

	coordinator := generation.NewCoordinator(generation.NewFlight(), generation.NewGuard(redis, time.Minute))
	pipeline := generation.NewPipeline(coordinator, source, nil, generation.PipelineConfig{
		Aliases:            cat.AliasMap(),
		ExcludeUsedPhrases: true,
		Timeout:            5 * time.Second,
		Selectors:          profile.DefaultSelectors,
	}, nil, log)

	srv := httptest.NewServer(api.NewServer(pipeline, redis.Ping, log).Handler())
	t.Cleanup(srv.Close)
	return &process{loader: loader, pipeline: pipeline, api: srv}
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *database.RedisClient) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// gatedSource holds the catalog load until released.
type gatedSource struct {
	inner   generation.CatalogSource
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) Load(ctx context.Context) (*catalog.Result, error) {
	close(g.entered)
	<-g.release
	return g.inner.Load(ctx)
}

func postGenerate(url string, body map[string]interface{}) (int, map[string]interface{}, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	resp, err := http.Post(url+"/api/v1/scripts/generate", "application/json", bytes.NewReader(raw))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out, err
}

func generate(t *testing.T, url string, body map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()
	status, out, err := postGenerate(url, body)
	require.NoError(t, err)
	return status, out
}

// ==========================
// HTTP Endpoint
// ==========================

func TestGenerateEndpoint_PageSnapshot(t *testing.T) {
	mr, redis := setupRedis(t)
	host := newCatalogHost(t)
	p := newProcess(t, host, redis, nil)

	status, out := generate(t, p.api.URL, map[string]interface{}{
		"sessionId": "tab-1",
		"pageHtml":  clientPage,
		"seed":      3,
	})
	require.Equal(t, http.StatusOK, status, out)

	assert.Equal(t, []interface{}{"fuel_buyers", "fuel_partners", "credit_ending", "vip"}, out["matchedRules"])
	assert.Equal(t, false, out["usedDefault"])
	scripts := out["scripts"].([]interface{})
	require.Len(t, scripts, 4)
	first := scripts[0].(map[string]interface{})
	assert.Equal(t, "1. Кредит под залог автомобиля", first["title"])
	assert.Equal(t, "Предварительные условия: ставка 9%–12%, срок 60 мес.", first["conditions"])
	assert.Contains(t, out["html"], `<div class="script-card">`)

	generationID, _ := out["generationId"].(string)
	require.NotEmpty(t, generationID)
	stored, err := mr.Get("scripts:generation:tab-1")
	require.NoError(t, err)
	assert.Equal(t, generationID, stored)

	// a fresh catalog is fetched for every request
	before := host.requests.Load()
	status, _ = generate(t, p.api.URL, map[string]interface{}{"pageHtml": clientPage})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, before+4, host.requests.Load())
}

func TestGenerateEndpoint_CatalogMissing(t *testing.T) {
	_, redis := setupRedis(t)
	host := newCatalogHost(t)
	host.missing["rules.json"] = true
	p := newProcess(t, host, redis, nil)

	status, out := generate(t, p.api.URL, map[string]interface{}{"pageHtml": clientPage})
	require.Equal(t, http.StatusBadGateway, status)

	body := out["error"].(map[string]interface{})
	assert.Equal(t, string(errors.ErrCodeCatalogFetchFailed), body["code"])
	assert.Equal(t, "Ошибка генерации: rules.json загрузка: 404", body["userMessage"])
}

func TestGenerateEndpoint_InvalidInput(t *testing.T) {
	_, redis := setupRedis(t)
	host := newCatalogHost(t)
	p := newProcess(t, host, redis, nil)

	status, out := generate(t, p.api.URL, map[string]interface{}{"sessionId": "tab-1"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(errors.ErrCodeInvalidInput), out["error"].(map[string]interface{})["code"])
	assert.Zero(t, host.requests.Load())
}

func TestGenerateEndpoint_SupersededAcrossProcesses(t *testing.T) {
	_, redis := setupRedis(t)
	host := newCatalogHost(t)

	gate := &gatedSource{entered: make(chan struct{}), release: make(chan struct{})}
	slow := newProcess(t, host, redis, func(inner generation.CatalogSource) generation.CatalogSource {
		gate.inner = inner
		return gate
	})
	fast := newProcess(t, host, redis, nil)

	type result struct {
		status int
		body   map[string]interface{}
		err    error
	}
	done := make(chan result, 1)
	go func() {
		status, body, err := postGenerate(slow.api.URL, map[string]interface{}{"sessionId": "tab-7", "pageHtml": clientPage})
		done <- result{status, body, err}
	}()

	<-gate.entered
	status, _ := generate(t, fast.api.URL, map[string]interface{}{"sessionId": "tab-7", "pageHtml": clientPage})
	require.Equal(t, http.StatusOK, status)
	close(gate.release)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, http.StatusConflict, r.status)
		assert.Equal(t, string(errors.ErrCodeGenerationSuperseded), r.body["error"].(map[string]interface{})["code"])
	case <-time.After(5 * time.Second):
		t.Fatal("stale generation did not finish")
	}
}

// ==========================
// Worker Chain
// ==========================

// TestWorkerChain runs the step-by-step workers the way the BPMN process does and
// checks they agree with the single generate-scripts worker.
func TestWorkerChain(t *testing.T) {
	_, redis := setupRedis(t)
	host := newCatalogHost(t)
	p := newProcess(t, host, redis, nil)
	log := logger.NewTestLogger(t)
	ctx := context.Background()
	aliases := host.config().AliasMap()

	extracted, err := ecp.NewHandler(ecp.LoadConfig(), nil, log).Execute(ctx, &ecp.Input{PageHTML: clientPage})
	require.NoError(t, err)
	assert.Equal(t, "Иван", extracted.ClientProfile.FirstName)

	loaded, err := lsc.NewHandler(&lsc.Config{Aliases: aliases}, p.loader, nil, log).Execute(ctx, &lsc.Input{})
	require.NoError(t, err)
	assert.Empty(t, loaded.SkippedRules)

	selector, err := sr.NewHandler(sr.LoadConfig(), nil, log)
	require.NoError(t, err)
	selected, err := selector.Execute(ctx, &sr.Input{ClientProfile: extracted.ClientProfile, Catalog: loaded.Catalog})
	require.NoError(t, err)
	require.Equal(t, []string{"fuel_buyers", "fuel_partners", "credit_ending", "vip"}, selected.RuleKeys)

	composer := cs.NewHandler(&cs.Config{Aliases: aliases, ExcludeUsedPhrases: true}, nil, log)
	formatter := fc.NewHandler(&fc.Config{Aliases: aliases}, nil, log)
	seed := uint64(11)

	stepwise := make([]string, 0, len(selected.SelectedRules))
	for i, rule := range selected.SelectedRules {
		rule := rule
		composed, err := composer.Execute(ctx, &cs.Input{
			Rule:          &rule,
			Catalog:       loaded.Catalog,
			ClientProfile: selected.ClientProfile,
			Index:         i + 1,
			Seed:          &seed,
		})
		require.NoError(t, err)
		assert.NotContains(t, composed.Script, "{{")

		formatted, err := formatter.Execute(ctx, &fc.Input{ProductName: rule.TargetProduct, Products: loaded.Catalog.Products})
		require.NoError(t, err)
		assert.True(t, formatted.Found)
		assert.Equal(t, formatted.Conditions, composed.Fragment.Conditions)

		stepwise = append(stepwise, composed.Fragment.Title)
	}

	whole, err := gs.NewHandler(gs.LoadConfig(), p.pipeline, nil, log).Execute(ctx, &gs.Input{PageHTML: clientPage, SessionID: "process-1"})
	require.NoError(t, err)

	titles := make([]string, 0, len(whole.Scripts))
	for _, s := range whole.Scripts {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, stepwise, titles)
	assert.Equal(t, selected.ClientProfile, whole.ClientProfile)
}

func TestWorkerChain_DefaultRule(t *testing.T) {
	_, redis := setupRedis(t)
	host := newCatalogHost(t)
	p := newProcess(t, host, redis, nil)

	client := models.NewClientProfile("Петров Пётр Петрович", "Standard", 36, nil)
	out, err := gs.NewHandler(gs.LoadConfig(), p.pipeline, nil, logger.NewTestLogger(t)).
		Execute(context.Background(), &gs.Input{ClientProfile: &client})
	require.NoError(t, err)

	assert.True(t, out.UsedDefault)
	assert.Equal(t, []string{"default"}, out.MatchedRules)
	require.Len(t, out.Scripts, 1)
	assert.Contains(t, out.Scripts[0].Script, "Пётр Петрович")
}
