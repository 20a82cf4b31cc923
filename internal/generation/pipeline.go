// internal/generation/pipeline.go
package generation

import (
	"context"
	"strings"
	"time"

	"sales-script-workers/internal/catalog"
	"sales-script-workers/internal/common/config"
	apperrors "sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/logger"
	"sales-script-workers/internal/common/metrics"
	"sales-script-workers/internal/common/observability"
	"sales-script-workers/internal/models"
	"sales-script-workers/internal/profile"
	"sales-script-workers/internal/scripting"

	"go.opentelemetry.io/otel/attribute"
)

// Outcome labels for generation metrics.
const (
	OutcomeScripts    = "scripts"
	OutcomeDefault    = "default"
	OutcomeEmpty      = "empty"
	OutcomeSuperseded = "superseded"
	OutcomeFailed     = "failed"
)

// CatalogSource loads a fresh catalog for every generation. *catalog.Loader satisfies it.
type CatalogSource interface {
	Load(ctx context.Context) (*catalog.Result, error)
}

// Request is one "generate" action. Either Profile or PageHTML must be set;
// Profile wins when both are.
type Request struct {
	SessionID string                `json:"sessionId,omitempty"`
	PageHTML  string                `json:"pageHtml,omitempty"`
	Profile   *models.ClientProfile `json:"clientProfile,omitempty"`
	Seed      *uint64               `json:"seed,omitempty"`

	// Source labels metrics ("api", "worker").
	Source string `json:"-"`
}

// Result is the rendered output of one generation.
type Result struct {
	GenerationID    string                 `json:"generationId,omitempty"`
	Client          models.ClientProfile   `json:"clientProfile"`
	MatchedRules    []string               `json:"matchedRules"`
	UsedDefault     bool                   `json:"usedDefault"`
	Scripts         []scripting.Fragment   `json:"scripts"`
	HTML            string                 `json:"html"`
	Message         string                 `json:"message,omitempty"`
	Skipped         []catalog.SkippedEntry `json:"skippedRules,omitempty"`
	SkippedProducts []catalog.SkippedEntry `json:"skippedProducts,omitempty"`
}

// PipelineConfig is the part of the application config the pipeline reads.
type PipelineConfig struct {
	Aliases            map[string]models.ProductAlias
	ExcludeUsedPhrases bool
	MaxScripts         int
	Timeout            time.Duration
	Selectors          profile.Selectors
}

func PipelineConfigFrom(cfg *config.Config) PipelineConfig {
	return PipelineConfig{
		Aliases:            cfg.Catalog.AliasMap(),
		ExcludeUsedPhrases: cfg.Composer.ExcludeUsedPhrases,
		MaxScripts:         cfg.Composer.MaxScripts,
		Timeout:            config.GetDuration(cfg.Generation.Timeout),
		Selectors:          profile.DefaultSelectors,
	}
}

// Pipeline runs extraction, catalog loading, matching and composition for one
// request under the single-flight coordinator.
type Pipeline struct {
	coordinator *Coordinator
	catalog     CatalogSource
	matcher     *scripting.Matcher
	config      PipelineConfig
	obs         *observability.Observability
	logger      logger.Logger
}

func NewPipeline(
	coordinator *Coordinator,
	source CatalogSource,
	matcher *scripting.Matcher,
	cfg PipelineConfig,
	obs *observability.Observability,
	log logger.Logger,
) *Pipeline {
	if coordinator == nil {
		coordinator = NewCoordinator(nil, nil)
	}
	if matcher == nil {
		matcher = &scripting.Matcher{Mode: scripting.MatchAll, EmptyTrigger: scripting.CatchAll}
	}
	return &Pipeline{
		coordinator: coordinator,
		catalog:     source,
		matcher:     matcher,
		config:      cfg,
		obs:         obs,
		logger:      log.WithFields(map[string]interface{}{"component": "generation"}),
	}
}

// Generate produces the scripts for req. A generation replaced by a newer one for
// the same session returns GENERATION_SUPERSEDED and no result.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Result, error) {
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	ctx, span := p.obs.StartSpan(ctx, "scripts.generate",
		attribute.String("source", sourceLabel(req.Source)),
		attribute.String("session", req.SessionID),
	)
	res, err := p.generate(ctx, req)
	observability.EndSpan(span, err)

	outcome := OutcomeScripts
	switch {
	case apperrors.HasCode(err, apperrors.ErrCodeGenerationSuperseded):
		outcome = OutcomeSuperseded
	case err != nil:
		outcome = OutcomeFailed
	case len(res.Scripts) == 0:
		outcome = OutcomeEmpty
	case res.UsedDefault:
		outcome = OutcomeDefault
	}
	scripts := 0
	if res != nil {
		scripts = len(res.Scripts)
	}
	metrics.ScriptsGenerated.WithLabelValues(outcome).Inc()
	p.obs.RecordGeneration(ctx, sourceLabel(req.Source), outcome, scripts)

	return res, err
}

func (p *Pipeline) generate(ctx context.Context, req Request) (*Result, error) {
	client, err := p.clientProfile(req)
	if err != nil {
		return nil, err
	}

	run, err := p.coordinator.Start(ctx, strings.TrimSpace(req.SessionID))
	if err != nil {
		return nil, err
	}
	defer run.Close()
	runCtx := run.Context()

	fields := map[string]interface{}{
		"sessionId":    req.SessionID,
		"generationId": run.ID(),
	}
	if id := observability.TraceID(ctx); id != "" {
		fields["traceId"] = id
	}
	log := p.logger.WithFields(fields)

	loadCtx, span := p.obs.StartSpan(runCtx, "catalog.load")
	loaded, err := p.catalog.Load(loadCtx)
	observability.EndSpan(span, err)
	if err != nil {
		if run.Superseded() {
			return nil, apperrors.NewGenerationSupersededError(req.SessionID)
		}
		return nil, err
	}
	if run.Superseded() {
		return nil, apperrors.NewGenerationSupersededError(req.SessionID)
	}

	cat := loaded.Catalog
	client = catalog.InferCategories(client, cat.Partners)

	selected := p.matcher.SelectRules(cat.Rules, cat.DefaultRule, client)
	metrics.RulesMatched.Observe(float64(len(selected)))
	if p.config.MaxScripts > 0 && len(selected) > p.config.MaxScripts {
		selected = selected[:p.config.MaxScripts]
	}

	res := &Result{
		GenerationID:    run.ID(),
		Client:          client,
		MatchedRules:    make([]string, 0, len(selected)),
		Scripts:         make([]scripting.Fragment, 0, len(selected)),
		Skipped:         loaded.Skipped,
		SkippedProducts: loaded.SkippedProducts,
	}

	var rnd scripting.RandomSource
	if req.Seed != nil {
		rnd = scripting.NewRand(*req.Seed)
	}
	composer := scripting.NewComposer(rnd, p.config.ExcludeUsedPhrases)

	var html strings.Builder
	for i, rule := range selected {
		if cat.DefaultRule != nil && rule.Key == cat.DefaultRule.Key && len(selected) == 1 {
			res.UsedDefault = true
		}
		res.MatchedRules = append(res.MatchedRules, rule.Key)

		resolved := catalog.ResolveProduct(rule.TargetProduct, p.config.Aliases, cat.Products)
		if resolved.Product == nil && rule.TargetProduct != "" {
			log.Warn("product not found in catalog", map[string]interface{}{
				"ruleKey": rule.Key,
				"product": rule.TargetProduct,
			})
		}

		title := scripting.Title(i+1, resolved.Title)
		conditions := scripting.FormatConditions(resolved.Product)
		script := composer.Compose(rule, cat.Phrases, resolved.Product, client)
		fragment := scripting.RenderFragment(title, conditions, script)

		res.Scripts = append(res.Scripts, scripting.Fragment{
			Index:      i + 1,
			RuleKey:    rule.Key,
			Product:    resolved.Key,
			Title:      title,
			Conditions: conditions,
			Script:     script,
			HTML:       fragment,
		})
		html.WriteString(fragment)
	}

	if len(res.Scripts) == 0 {
		res.Message = scripting.NoRecommendationsMessage
		res.HTML = scripting.RenderEmpty()
	} else {
		res.HTML = html.String()
	}

	if err := run.Commit(ctx); err != nil {
		return nil, err
	}

	log.Info("scripts generated", map[string]interface{}{
		"rules":       res.MatchedRules,
		"usedDefault": res.UsedDefault,
		"scripts":     len(res.Scripts),
	})
	return res, nil
}

// clientProfile takes the supplied profile, or extracts one from the page snapshot.
func (p *Pipeline) clientProfile(req Request) (models.ClientProfile, error) {
	if req.Profile != nil {
		return models.NormalizeProfile(*req.Profile), nil
	}
	if strings.TrimSpace(req.PageHTML) == "" {
		return models.ClientProfile{}, apperrors.NewInvalidInputError("clientProfile or pageHtml is required")
	}
	return profile.ExtractString(req.PageHTML, p.config.Selectors)
}

func sourceLabel(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
