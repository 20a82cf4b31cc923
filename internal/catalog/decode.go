// internal/catalog/decode.go
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sales-script-workers/internal/common/validation"
	"sales-script-workers/internal/models"

	"github.com/tidwall/gjson"
)

var ErrNotAnObject = errors.New("not a JSON object")

const ruleSchemaJSON = `{
  "type": "object",
  "required": ["priority", "trigger"],
  "properties": {
    "priority": {"type": "integer"},
    "trigger": {
      "type": "object",
      "properties": {
        "mcc": {"type": "array", "items": {"type": "integer"}},
        "min_count": {"type": "integer", "minimum": 0},
        "category": {"type": "string"},
        "max_credit_remaining_months": {"type": "integer"},
        "operation_categories": {"type": "array", "items": {"type": "string"}}
      }
    },
    "product": {"type": "string"},
    "phrases": {"type": "array", "items": {"type": "string"}}
  }
}`

const defaultRuleSchemaJSON = `{
  "type": "object",
  "properties": {
    "product": {"type": "string"},
    "phrases": {"type": "array", "items": {"type": "string"}}
  }
}`

var (
	ruleSchema        = validation.MustCompile("rule", ruleSchemaJSON)
	defaultRuleSchema = validation.MustCompile("default-rule", defaultRuleSchemaJSON)
)

// SkippedEntry is a rules.json or products.json entry that failed validation.
type SkippedEntry struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// RuleSet is the decoded rules.json.
type RuleSet struct {
	Rules   []models.Rule
	Default *models.Rule
	Skipped []SkippedEntry
	// Duplicates lists keys defined more than once, in document order.
	Duplicates []string
}

// DecodeRules reads rules.json in document order. The entry named defaultKey is
// returned separately; entries failing the rule schema are reported in Skipped.
// A key defined twice keeps its first position and its last definition.
func DecodeRules(data []byte, defaultKey string) (*RuleSet, error) {
	root, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	set := &RuleSet{}
	var order []string
	entries := make(map[string]gjson.Result)
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if _, dup := entries[name]; dup {
			set.Duplicates = append(set.Duplicates, name)
		} else {
			order = append(order, name)
		}
		entries[name] = value
		return true
	})

	for _, name := range order {
		value := entries[name]

		if name == defaultKey {
			rule, err := decodeRule(name, value, defaultRuleSchema)
			if err != nil {
				set.Skipped = append(set.Skipped, SkippedEntry{Key: name, Reason: err.Error()})
				continue
			}
			set.Default = rule
			continue
		}

		rule, err := decodeRule(name, value, ruleSchema)
		if err != nil {
			set.Skipped = append(set.Skipped, SkippedEntry{Key: name, Reason: err.Error()})
			continue
		}
		set.Rules = append(set.Rules, *rule)
	}

	return set, nil
}

func decodeRule(key string, value gjson.Result, schema *validation.Schema) (*models.Rule, error) {
	if !value.IsObject() {
		return nil, ErrNotAnObject
	}
	if res := schema.ValidateBytes([]byte(value.Raw)); !res.Valid {
		return nil, errors.New(res.Error())
	}

	var rule models.Rule
	if err := json.Unmarshal([]byte(value.Raw), &rule); err != nil {
		return nil, err
	}
	rule.Key = key
	return &rule, nil
}

// DecodePhrases reads phrases.json. A block given as a single string is treated
// as one candidate; non-string candidates are ignored.
func DecodePhrases(data []byte) (models.PhraseCatalog, error) {
	root, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	phrases := make(models.PhraseCatalog)
	root.ForEach(func(key, value gjson.Result) bool {
		var candidates []string
		switch {
		case value.IsArray():
			for _, item := range value.Array() {
				if item.Type == gjson.String {
					candidates = append(candidates, item.String())
				}
			}
		case value.Type == gjson.String:
			candidates = []string{value.String()}
		}
		phrases[key.String()] = candidates
		return true
	})
	return phrases, nil
}

// ProductSet is the decoded products.json.
type ProductSet struct {
	Products models.ProductCatalog
	Skipped  []SkippedEntry
}

// DecodeProducts reads products.json entry by entry. An entry that is not a
// product card is reported in Skipped; rules targeting it render the fallback.
func DecodeProducts(data []byte) (*ProductSet, error) {
	root, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	set := &ProductSet{Products: make(models.ProductCatalog)}
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if !value.IsObject() {
			set.Skipped = append(set.Skipped, SkippedEntry{Key: name, Reason: ErrNotAnObject.Error()})
			return true
		}
		var product models.Product
		if err := json.Unmarshal([]byte(value.Raw), &product); err != nil {
			set.Skipped = append(set.Skipped, SkippedEntry{Key: name, Reason: err.Error()})
			return true
		}
		set.Products[name] = product
		return true
	})
	return set, nil
}

// DecodePartners reads partners.json, keeping only string categories.
func DecodePartners(data []byte) (models.PartnerMap, error) {
	root, err := parseObject(data)
	if err != nil {
		return nil, err
	}

	partners := make(models.PartnerMap)
	root.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String && strings.TrimSpace(key.String()) != "" {
			partners[key.String()] = value.String()
		}
		return true
	})
	return partners, nil
}

func parseObject(data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return gjson.Result{}, ErrNotAnObject
	}
	return root, nil
}

func describe(file string, err error) error {
	return fmt.Errorf("%s: %w", file, err)
}
