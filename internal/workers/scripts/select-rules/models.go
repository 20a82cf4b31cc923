// internal/workers/scripts/select-rules/models.go
package selectrules

import "sales-script-workers/internal/models"

type Input struct {
	ClientProfile models.ClientProfile `json:"clientProfile"`
	Catalog       models.Catalog       `json:"catalog"`
}

type Output struct {
	SelectedRules []models.Rule        `json:"selectedRules"`
	RuleKeys      []string             `json:"ruleKeys"`
	UsedDefault   bool                 `json:"usedDefault"`
	Message       string               `json:"message,omitempty"`
	ClientProfile models.ClientProfile `json:"clientProfile"`
}
