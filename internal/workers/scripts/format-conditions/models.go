// internal/workers/scripts/format-conditions/models.go
package formatconditions

import "sales-script-workers/internal/models"

// Input carries either the product itself or its name plus the product catalog.
type Input struct {
	Product     *models.Product       `json:"product,omitempty"`
	ProductName string                `json:"productName,omitempty"`
	Products    models.ProductCatalog `json:"products,omitempty"`
}

type Output struct {
	Conditions string `json:"conditions"`
	ProductKey string `json:"productKey,omitempty"`
	Title      string `json:"productTitle,omitempty"`
	Rate       string `json:"rate"`
	Term       string `json:"term"`
	Found      bool   `json:"productFound"`
}
