// internal/workers/scripts/compose-script/models.go
package composescript

import (
	"sales-script-workers/internal/models"
	"sales-script-workers/internal/scripting"
)

type Input struct {
	Rule          *models.Rule         `json:"rule"`
	Catalog       models.Catalog       `json:"catalog"`
	ClientProfile models.ClientProfile `json:"clientProfile"`
	// Index is the 1-based position of the script in the output; defaults to 1.
	Index int     `json:"index,omitempty"`
	Seed  *uint64 `json:"seed,omitempty"`
}

type Output struct {
	Script   string             `json:"script"`
	Fragment scripting.Fragment `json:"fragment"`
}
