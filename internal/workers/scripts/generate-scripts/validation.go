// internal/workers/scripts/generate-scripts/validation.go
package generatescripts

import (
	"fmt"

	"sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/common/validation"
)

const inputSchemaJSON = `{
	"type": "object",
	"properties": {
		"sessionId": {"type": "string"},
		"pageHtml": {"type": "string"},
		"clientProfile": {
			"type": ["object", "null"],
			"properties": {
				"fullName": {"type": "string"},
				"category": {"type": "string"},
				"remainingCreditMonths": {"type": "integer"},
				"operations": {"type": ["array", "null"]}
			}
		},
		"seed": {"type": "integer", "minimum": 0}
	},
	"anyOf": [
		{"required": ["clientProfile"]},
		{"required": ["pageHtml"], "properties": {"pageHtml": {"pattern": "\\S"}}}
	]
}`

var inputSchema = validation.MustCompile("generate-scripts input", inputSchemaJSON)

func validateVariables(raw []byte) error {
	if res := inputSchema.ValidateBytes(raw); !res.Valid {
		return errors.NewInvalidInputErrorFrom(fmt.Errorf("%w: %s", ErrSchemaViolation, res.Error()))
	}
	return nil
}
