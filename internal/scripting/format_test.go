// internal/scripting/format_test.go
package scripting

import (
	"encoding/json"
	"testing"

	"sales-script-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeProduct(t *testing.T, raw string) *models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return &p
}

func TestFormatRate_FromCatalogEntries(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"min and max", `{"Ставка мин": 9, "Ставка макс": 12}`, "9%–12%"},
		{"scalar", `{"Ставка": 9.9}`, "9.9%"},
		{"equal bounds", `{"Ставка мин": 14.5, "Ставка макс": 14.5}`, "14.5%"},
		{"absent", `{}`, "—%"},
		{"null", `{"Ставка": null}`, "—%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRate(decodeProduct(t, tt.raw).Rate))
		})
	}
}

func TestFormatTerm(t *testing.T) {
	assert.Equal(t, "60 мес.", FormatTerm(models.Value(60)))
	assert.Equal(t, "12–60 мес.", FormatTerm(models.Range(12, 60)))
	assert.Equal(t, "— мес.", FormatTerm(nil))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "9", FormatNumber(9))
	assert.Equal(t, "9.9", FormatNumber(9.90))
	assert.Equal(t, "0.05", FormatNumber(0.05))
	assert.Equal(t, "3000", FormatNumber(3000))
}

func TestFormatConditions(t *testing.T) {
	cashback, discount, saving, installment := 5.0, 10.0, 3000.0, 12.0

	tests := []struct {
		name    string
		product *models.Product
		want    string
	}{
		{
			name:    "rate only",
			product: &models.Product{Rate: models.Value(9.9)},
			want:    "Предварительные условия: ставка 9.9%.",
		},
		{
			name:    "rate and term",
			product: &models.Product{Rate: models.Range(9, 12), Term: models.Value(60)},
			want:    "Предварительные условия: ставка 9%–12%, срок 60 мес.",
		},
		{
			name:    "zero term is omitted",
			product: &models.Product{Rate: models.Value(0), Term: models.Value(0)},
			want:    "Предварительные условия: ставка 0%.",
		},
		{
			name: "all clauses",
			product: &models.Product{
				Rate:              models.Value(0),
				Term:              models.Range(3, 24),
				Cashback:          &cashback,
				Discount:          &discount,
				Saving:            &saving,
				InstallmentMonths: &installment,
			},
			want: "Предварительные условия: ставка 0%, срок 3–24 мес., кэшбэк 5%, скидка 10%, экономия до 3000 ₽, рассрочка 12 мес.",
		},
		{
			name:    "empty product keeps the rate clause",
			product: &models.Product{},
			want:    "Предварительные условия: ставка —%.",
		},
		{
			name:    "nil product",
			product: nil,
			want:    "Предварительные условия: ставка —%.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatConditions(tt.product))
		})
	}
}

func TestRenderFragment(t *testing.T) {
	got := RenderFragment(Title(1, "Прайм Плюс"), "Предварительные условия: ставка 9.9%.", `Иван <b>"VIP"</b>`)

	assert.Equal(t,
		`<div class="script-card"><h3>1. Прайм Плюс</h3><p><span class="conditions">Предварительные условия: ставка 9.9%.</span> Иван &lt;b&gt;&#34;VIP&#34;&lt;/b&gt;</p></div>`,
		got)
	assert.NotContains(t, RenderFragment("t", "", "s"), "conditions")
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "2. Кредит под залог авто", Title(2, " Кредит под залог авто "))
	assert.Equal(t, "Скрипт 3", Title(3, ""))
}

func TestRenderEmpty(t *testing.T) {
	assert.Contains(t, RenderEmpty(), NoRecommendationsMessage)
}
