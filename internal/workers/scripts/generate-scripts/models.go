// internal/workers/scripts/generate-scripts/models.go
package generatescripts

import (
	"sales-script-workers/internal/catalog"
	"sales-script-workers/internal/models"
	"sales-script-workers/internal/scripting"
)

type Input struct {
	SessionID     string                `json:"sessionId,omitempty"`
	PageHTML      string                `json:"pageHtml,omitempty"`
	ClientProfile *models.ClientProfile `json:"clientProfile,omitempty"`
	Seed          *uint64               `json:"seed,omitempty"`
}

type Output struct {
	GenerationID    string                 `json:"generationId,omitempty"`
	Scripts         []scripting.Fragment   `json:"scripts"`
	ScriptsHTML     string                 `json:"scriptsHtml"`
	MatchedRules    []string               `json:"matchedRules"`
	UsedDefault     bool                   `json:"usedDefault"`
	Message         string                 `json:"message,omitempty"`
	ClientProfile   models.ClientProfile   `json:"clientProfile"`
	SkippedRules    []catalog.SkippedEntry `json:"skippedRules,omitempty"`
	SkippedProducts []catalog.SkippedEntry `json:"skippedProducts,omitempty"`
}
