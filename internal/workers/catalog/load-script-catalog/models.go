// internal/workers/catalog/load-script-catalog/models.go
package loadscriptcatalog

import (
	"sales-script-workers/internal/catalog"
	"sales-script-workers/internal/models"
)

// Input is empty: the documents and their location come from configuration.
type Input struct{}

type Output struct {
	Catalog         models.Catalog         `json:"catalog"`
	SkippedRules    []catalog.SkippedEntry `json:"skippedRules,omitempty"`
	SkippedProducts []catalog.SkippedEntry `json:"skippedProducts,omitempty"`
	Issues          []catalog.Issue        `json:"catalogIssues,omitempty"`
}
