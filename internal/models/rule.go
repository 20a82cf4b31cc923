// internal/models/rule.go
package models

// Rule binds a trigger to a target product and the phrase blocks of its script.
// Priority and Trigger are pointers so that rules missing them can be told apart
// from zero values and skipped as malformed.
type Rule struct {
	Key           string       `json:"key"`
	Priority      *int         `json:"priority"`
	Trigger       *TriggerSpec `json:"trigger"`
	TargetProduct string       `json:"product"`
	PhraseBlocks  []string     `json:"phrases"`
}

// PriorityValue returns the priority, or 0 for rules without one.
func (r Rule) PriorityValue() int {
	if r.Priority == nil {
		return 0
	}
	return *r.Priority
}

// IsWellFormed reports whether the rule carries both priority and trigger.
func (r Rule) IsWellFormed() bool {
	return r.Priority != nil && r.Trigger != nil
}

// TriggerSpec is a disjunction: any populated condition that holds satisfies it.
type TriggerSpec struct {
	MCCCodes                 []int    `json:"mcc,omitempty"`
	MinCount                 int      `json:"min_count,omitempty"`
	ClientCategory           string   `json:"category,omitempty"`
	MaxRemainingCreditMonths *int     `json:"max_credit_remaining_months,omitempty"`
	OperationCategories      []string `json:"operation_categories,omitempty"`
}

// RequiredCount is MinCount with the default of one operation applied.
func (t TriggerSpec) RequiredCount() int {
	if t.MinCount <= 0 {
		return 1
	}
	return t.MinCount
}

// IsEmpty reports whether no condition is populated.
func (t TriggerSpec) IsEmpty() bool {
	return len(t.MCCCodes) == 0 &&
		t.ClientCategory == "" &&
		t.MaxRemainingCreditMonths == nil &&
		len(t.OperationCategories) == 0
}
