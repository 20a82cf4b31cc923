// internal/models/product.go
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NumberRange holds a single value (Min == Max) or a min/max pair.
type NumberRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Single reports whether the range collapses to one value.
func (r NumberRange) Single() bool {
	return r.Min == r.Max
}

// Value returns a range for a scalar.
func Value(v float64) *NumberRange {
	return &NumberRange{Min: v, Max: v}
}

// Range returns a range, swapping bounds given in the wrong order.
func Range(lo, hi float64) *NumberRange {
	if lo > hi {
		lo, hi = hi, lo
	}
	return &NumberRange{Min: lo, Max: hi}
}

// Product is a bank product card from products.json. Nil fields are absent.
type Product struct {
	Rate              *NumberRange `json:"rate,omitempty"`
	Term              *NumberRange `json:"termMonths,omitempty"`
	Cashback          *float64     `json:"cashback,omitempty"`
	Discount          *float64     `json:"discount,omitempty"`
	Saving            *float64     `json:"saving,omitempty"`
	InstallmentMonths *float64     `json:"installmentMonths,omitempty"`
	UpdatedAt         string       `json:"updatedAt,omitempty"`
}

// Field names accepted in products.json. The catalog is maintained by hand and by
// the products updater, so both Cyrillic and Latin spellings occur.
var (
	rateKeys        = []string{"Ставка", "rate"}
	rateMinKeys     = []string{"Ставка мин", "rate_min", "rateMin"}
	rateMaxKeys     = []string{"Ставка макс", "rate_max", "rateMax"}
	termKeys        = []string{"Срок", "term", "termMonths", "term_months"}
	termMinKeys     = []string{"Срок мин", "term_min", "termMin"}
	termMaxKeys     = []string{"Срок макс", "term_max", "termMax"}
	cashbackKeys    = []string{"Кэшбэк", "cashback"}
	discountKeys    = []string{"Скидка", "discount"}
	savingKeys      = []string{"Экономия", "saving"}
	installmentKeys = []string{"Рассрочка", "installment_months", "installmentMonths"}
	updatedKeys     = []string{"Обновлено", "updated_at", "updatedAt"}
)

// UnmarshalJSON accepts scalar, {min,max} and split min/max spellings.
// Values that are null, empty or not numeric are treated as absent.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = Product{
		Rate:              decodeRange(raw, rateKeys, rateMinKeys, rateMaxKeys),
		Term:              decodeRange(raw, termKeys, termMinKeys, termMaxKeys),
		Cashback:          decodeScalar(raw, cashbackKeys),
		Discount:          decodeScalar(raw, discountKeys),
		Saving:            decodeScalar(raw, savingKeys),
		InstallmentMonths: decodeScalar(raw, installmentKeys),
	}

	for _, key := range updatedKeys {
		if msg, ok := raw[key]; ok {
			var s string
			if json.Unmarshal(msg, &s) == nil {
				p.UpdatedAt = s
				break
			}
		}
	}

	return nil
}

func decodeRange(raw map[string]json.RawMessage, valueKeys, minKeys, maxKeys []string) *NumberRange {
	for _, key := range valueKeys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		if v, ok := parseNumber(msg); ok {
			return Value(v)
		}
		if r := parseRangeObject(msg); r != nil {
			return r
		}
	}

	lo := decodeScalar(raw, minKeys)
	hi := decodeScalar(raw, maxKeys)
	switch {
	case lo != nil && hi != nil:
		return Range(*lo, *hi)
	case lo != nil:
		return Value(*lo)
	case hi != nil:
		return Value(*hi)
	}
	return nil
}

func parseRangeObject(msg json.RawMessage) *NumberRange {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(msg, &obj); err != nil {
		return nil
	}
	lo := decodeScalar(obj, []string{"min", "мин"})
	hi := decodeScalar(obj, []string{"max", "макс"})
	switch {
	case lo != nil && hi != nil:
		return Range(*lo, *hi)
	case lo != nil:
		return Value(*lo)
	case hi != nil:
		return Value(*hi)
	}
	return nil
}

func decodeScalar(raw map[string]json.RawMessage, keys []string) *float64 {
	for _, key := range keys {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		if v, ok := parseNumber(msg); ok {
			return &v
		}
	}
	return nil
}

// parseNumber reads a JSON number or a numeric string such as "9,9".
func parseNumber(msg json.RawMessage) (float64, bool) {
	if trimmed := strings.TrimSpace(string(msg)); trimmed == "" || trimmed == "null" {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(msg, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
