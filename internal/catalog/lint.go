// internal/catalog/lint.go
package catalog

import (
	"fmt"
	"sort"

	"sales-script-workers/internal/models"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one problem found in a loaded catalog.
type Issue struct {
	Severity Severity `json:"severity"`
	RuleKey  string   `json:"ruleKey,omitempty"`
	Message  string   `json:"message"`
}

// Lint reports rules that were skipped or defined twice, point at unknown products,
// reference missing phrase blocks or have inconsistent triggers, plus malformed
// product cards. Errors come first; otherwise issues keep rule order.
func Lint(res *Result, aliases map[string]models.ProductAlias) []Issue {
	var issues []Issue

	for _, s := range res.Skipped {
		issues = append(issues, Issue{Severity: SeverityError, RuleKey: s.Key, Message: "malformed rule: " + s.Reason})
	}
	for _, key := range res.DuplicateRules {
		issues = append(issues, Issue{Severity: SeverityError, RuleKey: key, Message: "duplicate rule key: last definition wins"})
	}
	for _, s := range res.SkippedProducts {
		issues = append(issues, Issue{Severity: SeverityError, Message: fmt.Sprintf("malformed product %q: %s", s.Key, s.Reason)})
	}

	cat := res.Catalog
	seen := make(map[string]bool, len(cat.Rules))
	check := func(r models.Rule) {
		if r.TargetProduct == "" {
			issues = append(issues, Issue{Severity: SeverityWarning, RuleKey: r.Key, Message: "rule has no target product"})
		} else if resolved := ResolveProduct(r.TargetProduct, aliases, cat.Products); resolved.Product == nil {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				RuleKey:  r.Key,
				Message:  fmt.Sprintf("product %q not found in catalog", r.TargetProduct),
			})
		}

		if len(r.PhraseBlocks) == 0 {
			issues = append(issues, Issue{Severity: SeverityWarning, RuleKey: r.Key, Message: "rule has no phrase blocks"})
		}
		for _, block := range r.PhraseBlocks {
			if len(cat.Phrases[block]) == 0 {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					RuleKey:  r.Key,
					Message:  fmt.Sprintf("phrase block %q is missing or empty", block),
				})
			}
		}
	}

	for _, r := range cat.Rules {
		if seen[r.Key] {
			issues = append(issues, Issue{Severity: SeverityError, RuleKey: r.Key, Message: "duplicate rule key"})
		}
		seen[r.Key] = true

		if r.Trigger != nil && len(r.Trigger.MCCCodes) == 0 && r.Trigger.MinCount > 0 && len(r.Trigger.OperationCategories) == 0 {
			issues = append(issues, Issue{Severity: SeverityWarning, RuleKey: r.Key, Message: "min_count set without mcc or operation_categories"})
		}
		if r.Trigger != nil && len(r.Trigger.OperationCategories) > 0 && len(cat.Partners) == 0 {
			issues = append(issues, Issue{Severity: SeverityWarning, RuleKey: r.Key, Message: "operation_categories used but no partners loaded"})
		}
		check(r)
	}

	if cat.DefaultRule == nil {
		issues = append(issues, Issue{Severity: SeverityWarning, Message: "no default rule: clients matching nothing get no recommendations"})
	} else {
		check(*cat.DefaultRule)
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity == SeverityError && issues[j].Severity != SeverityError
	})
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}
