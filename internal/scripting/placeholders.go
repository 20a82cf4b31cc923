// internal/scripting/placeholders.go
package scripting

import (
	"regexp"
	"strconv"
	"strings"

	"sales-script-workers/internal/models"
)

// Placeholder tokens recognised in phrase templates.
const (
	TokenFullName              = "ФИО"
	TokenFirstName             = "Имя"
	TokenPatronymic            = "Отчество"
	TokenCreditRemainingMonths = "credit_remaining_months"
	TokenRate                  = "ставка"
	TokenTerm                  = "срок"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)

// Placeholders returns the substitution values for one client and product.
// Empty client fields map to the fallback.
func Placeholders(product *models.Product, client models.ClientProfile) map[string]string {
	var rate, term *models.NumberRange
	if product != nil {
		rate, term = product.Rate, product.Term
	}

	return map[string]string{
		TokenFullName:              orFallback(client.FullName),
		TokenFirstName:             orFallback(client.FirstName),
		TokenPatronymic:            orFallback(client.Patronymic),
		TokenCreditRemainingMonths: strconv.Itoa(client.RemainingCreditMonths),
		TokenRate:                  FormatRate(rate),
		TokenTerm:                  FormatTerm(term),
	}
}

// Substitute replaces every {{token}} in text. Tokens missing from values
// become the fallback. Stray "{{" in the template collapse to "{"; a "{{" inside
// a substituted value is split to "{ {" so the value keeps its characters.
// No "{{" is left in the result.
func Substitute(text string, values map[string]string) string {
	var b strings.Builder
	last := 0
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(collapseBraces(text[last:loc[0]]))
		name := text[loc[2]:loc[3]]
		if v, ok := values[name]; ok && v != "" {
			b.WriteString(splitBraces(v))
		} else {
			b.WriteString(Fallback)
		}
		last = loc[1]
	}
	b.WriteString(collapseBraces(text[last:]))

	// a value may start with "{" right after a template "{"
	return splitBraces(b.String())
}

func collapseBraces(s string) string {
	for strings.Contains(s, "{{") {
		s = strings.ReplaceAll(s, "{{", "{")
	}
	return s
}

func splitBraces(s string) string {
	for strings.Contains(s, "{{") {
		s = strings.ReplaceAll(s, "{{", "{ {")
	}
	return s
}

func orFallback(s string) string {
	if strings.TrimSpace(s) == "" {
		return Fallback
	}
	return s
}
