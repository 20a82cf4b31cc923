// internal/models/catalog.go
package models

import (
	"sort"
	"strings"
)

// DefaultRuleKey is the rules.json entry used when nothing else matches.
const DefaultRuleKey = "default"

// PhraseCatalog maps a block name ("greeting", "hook", ...) to its candidate templates.
type PhraseCatalog map[string][]string

// ProductCatalog maps a catalog key to its product card.
type ProductCatalog map[string]Product

// PartnerMap maps a merchant-name substring to a spending category.
type PartnerMap map[string]string

// ProductAlias resolves a rule's target product to a catalog key and a display title.
type ProductAlias struct {
	Key   string `json:"key" mapstructure:"key"`
	Title string `json:"title" mapstructure:"title"`
}

// Catalog is the full set of documents fetched for one generation.
// Rules keep the document order of rules.json; the default entry is held apart.
type Catalog struct {
	Phrases     PhraseCatalog  `json:"phrases"`
	Rules       []Rule         `json:"rules"`
	DefaultRule *Rule          `json:"defaultRule,omitempty"`
	Products    ProductCatalog `json:"products"`
	Partners    PartnerMap     `json:"partners,omitempty"`
}

// Category returns the category of the first partner whose name occurs in text.
// Longer names are tried first so that "Лукойл-Авто" wins over "Лукойл".
func (m PartnerMap) Category(text string) (string, bool) {
	if len(m) == 0 || strings.TrimSpace(text) == "" {
		return "", false
	}

	names := make([]string, 0, len(m))
	for name := range m {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	lower := strings.ToLower(text)
	for _, name := range names {
		if strings.Contains(lower, strings.ToLower(name)) {
			return m[name], true
		}
	}
	return "", false
}
