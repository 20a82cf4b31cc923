// internal/catalog/resolve.go
package catalog

import (
	"strings"

	"sales-script-workers/internal/models"
)

// InferCategories returns a copy of profile whose operations without a category
// get the category of the first partner named in their text.
func InferCategories(profile models.ClientProfile, partners models.PartnerMap) models.ClientProfile {
	out := profile
	out.Operations = make([]models.Operation, len(profile.Operations))
	copy(out.Operations, profile.Operations)

	if len(partners) == 0 {
		return out
	}
	for i, op := range out.Operations {
		if op.Category != "" || op.Text == "" {
			continue
		}
		if category, ok := partners.Category(op.Text); ok {
			out.Operations[i].Category = category
		}
	}
	return out
}

// ResolvedProduct is a rule's target looked up through the alias table.
type ResolvedProduct struct {
	Key     string
	Title   string
	Product *models.Product
}

// ResolveProduct maps a rule target to a catalog entry and a display title. Lookups
// fall back to case-insensitive matching. A missing entry yields a nil Product and
// the target as title.
func ResolveProduct(target string, aliases map[string]models.ProductAlias, products models.ProductCatalog) ResolvedProduct {
	res := ResolvedProduct{Key: target, Title: target}

	if alias, ok := lookupFold(aliases, target); ok {
		if alias.Key != "" {
			res.Key = alias.Key
		}
		if alias.Title != "" {
			res.Title = alias.Title
		}
	}

	if p, ok := lookupFold(products, res.Key); ok {
		product := p
		res.Product = &product
	} else if p, ok := lookupFold(products, target); ok {
		product := p
		res.Product = &product
	}
	return res
}

func lookupFold[V any](m map[string]V, key string) (V, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(strings.TrimSpace(k), strings.TrimSpace(key)) {
			return v, true
		}
	}
	var zero V
	return zero, false
}
