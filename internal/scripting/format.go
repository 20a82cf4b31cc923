// internal/scripting/format.go
package scripting

import (
	"strconv"
	"strings"

	"sales-script-workers/internal/models"
)

// Fallback replaces any placeholder that has no value.
const Fallback = "—"

const conditionsPrefix = "Предварительные условия: "

// FormatNumber prints v without trailing zeros: 9 -> "9", 9.90 -> "9.9".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatRate renders "9.9%", "9%–12%" or "—%" when the rate is unknown.
func FormatRate(r *models.NumberRange) string {
	if r == nil {
		return Fallback + "%"
	}
	if r.Single() {
		return FormatNumber(r.Min) + "%"
	}
	return FormatNumber(r.Min) + "%–" + FormatNumber(r.Max) + "%"
}

// FormatTerm renders "60 мес.", "12–60 мес." or "— мес." when the term is unknown.
func FormatTerm(r *models.NumberRange) string {
	if r == nil {
		return Fallback + " мес."
	}
	if r.Single() {
		return FormatNumber(r.Min) + " мес."
	}
	return FormatNumber(r.Min) + "–" + FormatNumber(r.Max) + " мес."
}

// FormatConditions builds the preliminary conditions line shown above a script.
// A nil product still yields the rate clause with the fallback value.
func FormatConditions(product *models.Product) string {
	if product == nil {
		product = &models.Product{}
	}

	clauses := []string{"ставка " + FormatRate(product.Rate)}

	if product.Term != nil && product.Term.Max > 0 {
		clauses = append(clauses, "срок "+FormatTerm(product.Term))
	}
	if product.Cashback != nil {
		clauses = append(clauses, "кэшбэк "+FormatNumber(*product.Cashback)+"%")
	}
	if product.Discount != nil {
		clauses = append(clauses, "скидка "+FormatNumber(*product.Discount)+"%")
	}
	if product.Saving != nil {
		clauses = append(clauses, "экономия до "+FormatNumber(*product.Saving)+" ₽")
	}
	if product.InstallmentMonths != nil {
		clauses = append(clauses, "рассрочка "+FormatNumber(*product.InstallmentMonths)+" мес.")
	}

	body := strings.Join(clauses, ", ")
	if !strings.HasSuffix(body, ".") {
		body += "."
	}
	return conditionsPrefix + body
}
