// internal/scripting/matcher.go
package scripting

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"sales-script-workers/internal/models"
)

type MatchMode string

const (
	// MatchAll returns every rule whose trigger holds.
	MatchAll MatchMode = "all"
	// MatchFirst returns only the best (lowest priority value) match.
	MatchFirst MatchMode = "first"
)

// EmptyTriggerPolicy decides what a trigger without any populated condition does.
type EmptyTriggerPolicy string

const (
	CatchAll   EmptyTriggerPolicy = "catch_all"
	NeverMatch EmptyTriggerPolicy = "never"
)

var (
	ErrUnknownMatchMode    = errors.New("UNKNOWN_MATCH_MODE")
	ErrUnknownEmptyTrigger = errors.New("UNKNOWN_EMPTY_TRIGGER_POLICY")
)

type Matcher struct {
	Mode         MatchMode
	EmptyTrigger EmptyTriggerPolicy
}

// NewMatcher parses configuration values. Empty strings select the defaults.
func NewMatcher(mode, emptyTrigger string) (*Matcher, error) {
	m := &Matcher{Mode: MatchAll, EmptyTrigger: CatchAll}

	switch MatchMode(strings.ToLower(strings.TrimSpace(mode))) {
	case "", MatchAll:
	case MatchFirst:
		m.Mode = MatchFirst
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatchMode, mode)
	}

	switch EmptyTriggerPolicy(strings.ToLower(strings.TrimSpace(emptyTrigger))) {
	case "", CatchAll:
	case NeverMatch:
		m.EmptyTrigger = NeverMatch
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEmptyTrigger, emptyTrigger)
	}

	return m, nil
}

// SelectRules returns the rules applicable to the client ordered by ascending
// priority. Ties keep the order in which rules were given. When nothing matches
// the default rule, if any, is returned alone. Malformed rules never match.
func (m *Matcher) SelectRules(rules []models.Rule, defaultRule *models.Rule, client models.ClientProfile) []models.Rule {
	matched := make([]models.Rule, 0, len(rules))
	for _, rule := range rules {
		if !rule.IsWellFormed() {
			continue
		}
		if TriggerMatches(rule.Trigger, client, m.EmptyTrigger) {
			matched = append(matched, rule)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return *matched[i].Priority < *matched[j].Priority
	})

	if m.Mode == MatchFirst && len(matched) > 1 {
		matched = matched[:1]
	}

	if len(matched) == 0 && defaultRule != nil {
		return []models.Rule{*defaultRule}
	}
	return matched
}

// TriggerMatches evaluates the trigger as a disjunction of its populated conditions.
func TriggerMatches(trigger *models.TriggerSpec, client models.ClientProfile, policy EmptyTriggerPolicy) bool {
	if trigger == nil {
		return false
	}
	if trigger.IsEmpty() {
		return policy != NeverMatch
	}

	if len(trigger.MCCCodes) > 0 && countMCC(trigger.MCCCodes, client.Operations) >= trigger.RequiredCount() {
		return true
	}

	if trigger.ClientCategory != "" && client.Category == trigger.ClientCategory {
		return true
	}

	if trigger.MaxRemainingCreditMonths != nil && client.RemainingCreditMonths <= *trigger.MaxRemainingCreditMonths {
		return true
	}

	if len(trigger.OperationCategories) > 0 &&
		countCategories(trigger.OperationCategories, client.Operations) >= trigger.RequiredCount() {
		return true
	}

	return false
}

func countMCC(codes []int, ops []models.Operation) int {
	set := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}

	n := 0
	for _, op := range ops {
		if op.MCC == nil {
			continue
		}
		if _, ok := set[*op.MCC]; ok {
			n++
		}
	}
	return n
}

func countCategories(categories []string, ops []models.Operation) int {
	set := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		set[strings.ToLower(c)] = struct{}{}
	}

	n := 0
	for _, op := range ops {
		if op.Category == "" {
			continue
		}
		if _, ok := set[strings.ToLower(op.Category)]; ok {
			n++
		}
	}
	return n
}
