// internal/models/models_test.go
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		name           string
		fullName       string
		wantFirstName  string
		wantPatronymic string
	}{
		{"three parts", "Иванов Иван Иванович", "Иван", "Иванович"},
		{"two parts", "Иванов Иван", "Иван", ""},
		{"surname only", "Иванов", "", ""},
		{"empty", "", "", ""},
		{"extra whitespace", "  Петрова   Анна \t Сергеевна ", "Анна", "Сергеевна"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, patronymic := SplitFullName(tt.fullName)
			assert.Equal(t, tt.wantFirstName, first)
			assert.Equal(t, tt.wantPatronymic, patronymic)
		})
	}
}

func TestNewClientProfile(t *testing.T) {
	ops := []Operation{{MCC: IntPtr(5541)}}
	profile := NewClientProfile("  Иванов  Иван Иванович ", " VIP ", -3, ops)

	assert.Equal(t, "Иванов Иван Иванович", profile.FullName)
	assert.Equal(t, "Иван", profile.FirstName)
	assert.Equal(t, "Иванович", profile.Patronymic)
	assert.Equal(t, "VIP", profile.Category)
	assert.Equal(t, 0, profile.RemainingCreditMonths)

	// the profile owns its operations
	ops[0].Text = "changed"
	assert.Empty(t, profile.Operations[0].Text)
}

func TestNormalizeProfile(t *testing.T) {
	tests := []struct {
		name           string
		in             ClientProfile
		wantFull       string
		wantFirst      string
		wantPatronymic string
		wantMonths     int
	}{
		{
			name:           "full name only",
			in:             ClientProfile{FullName: "  Иванов  Иван  Иванович ", FirstName: "ignored", RemainingCreditMonths: -3},
			wantFull:       "Иванов Иван Иванович",
			wantFirst:      "Иван",
			wantPatronymic: "Иванович",
			wantMonths:     0,
		},
		{
			name:           "name parts without full name",
			in:             ClientProfile{FirstName: " Анна ", Patronymic: "Петровна", RemainingCreditMonths: 4},
			wantFirst:      "Анна",
			wantPatronymic: "Петровна",
			wantMonths:     4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeProfile(tt.in)
			assert.Equal(t, tt.wantFull, got.FullName)
			assert.Equal(t, tt.wantFirst, got.FirstName)
			assert.Equal(t, tt.wantPatronymic, got.Patronymic)
			assert.Equal(t, tt.wantMonths, got.RemainingCreditMonths)
		})
	}
}

func TestTriggerSpec(t *testing.T) {
	assert.True(t, TriggerSpec{}.IsEmpty())
	assert.True(t, TriggerSpec{MinCount: 3}.IsEmpty())
	assert.False(t, TriggerSpec{MCCCodes: []int{5411}}.IsEmpty())
	assert.False(t, TriggerSpec{ClientCategory: "VIP"}.IsEmpty())
	assert.False(t, TriggerSpec{MaxRemainingCreditMonths: IntPtr(0)}.IsEmpty())
	assert.False(t, TriggerSpec{OperationCategories: []string{"fuel"}}.IsEmpty())

	assert.Equal(t, 1, TriggerSpec{}.RequiredCount())
	assert.Equal(t, 1, TriggerSpec{MinCount: -2}.RequiredCount())
	assert.Equal(t, 4, TriggerSpec{MinCount: 4}.RequiredCount())
}

func TestRule_IsWellFormed(t *testing.T) {
	assert.True(t, Rule{Priority: IntPtr(1), Trigger: &TriggerSpec{}}.IsWellFormed())
	assert.False(t, Rule{Trigger: &TriggerSpec{}}.IsWellFormed())
	assert.False(t, Rule{Priority: IntPtr(1)}.IsWellFormed())
}

func TestProduct_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantRate *NumberRange
		wantTerm *NumberRange
		check    func(t *testing.T, p Product)
	}{
		{
			name:     "cyrillic scalar fields",
			raw:      `{"Ставка": 9.9, "Срок": 60, "Обновлено": "2025-05-01T00:00:00Z"}`,
			wantRate: &NumberRange{Min: 9.9, Max: 9.9},
			wantTerm: &NumberRange{Min: 60, Max: 60},
			check: func(t *testing.T, p Product) {
				assert.Equal(t, "2025-05-01T00:00:00Z", p.UpdatedAt)
			},
		},
		{
			name:     "cyrillic min and max",
			raw:      `{"Ставка мин": 9, "Ставка макс": 12, "Срок мин": 12, "Срок макс": 60}`,
			wantRate: &NumberRange{Min: 9, Max: 12},
			wantTerm: &NumberRange{Min: 12, Max: 60},
		},
		{
			name:     "range objects",
			raw:      `{"rate": {"min": 12, "max": 9}, "termMonths": {"min": 6}}`,
			wantRate: &NumberRange{Min: 9, Max: 12},
			wantTerm: &NumberRange{Min: 6, Max: 6},
		},
		{
			name:     "null rate from updater",
			raw:      `{"Ставка": null, "Срок": 0}`,
			wantRate: nil,
			wantTerm: &NumberRange{Min: 0, Max: 0},
		},
		{
			name:     "string values",
			raw:      `{"Ставка": "9,9%", "Срок": ""}`,
			wantRate: &NumberRange{Min: 9.9, Max: 9.9},
			wantTerm: nil,
		},
		{
			name: "optional benefit fields",
			raw:  `{"Ставка": 0, "Кэшбэк": 5, "discount": 10, "Экономия": 3000, "Рассрочка": 12}`,
			wantRate: &NumberRange{Min: 0, Max: 0},
			check: func(t *testing.T, p Product) {
				require.NotNil(t, p.Cashback)
				require.NotNil(t, p.Discount)
				require.NotNil(t, p.Saving)
				require.NotNil(t, p.InstallmentMonths)
				assert.Equal(t, 5.0, *p.Cashback)
				assert.Equal(t, 10.0, *p.Discount)
				assert.Equal(t, 3000.0, *p.Saving)
				assert.Equal(t, 12.0, *p.InstallmentMonths)
			},
		},
		{
			name: "empty object",
			raw:  `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Product
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &p))
			assert.Equal(t, tt.wantRate, p.Rate)
			assert.Equal(t, tt.wantTerm, p.Term)
			if tt.check != nil {
				tt.check(t, p)
			}
		})
	}
}

func TestProduct_SurvivesJobVariables(t *testing.T) {
	cashback := 5.0
	in := Product{Rate: Range(9, 12), Term: Value(60), Cashback: &cashback}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Product
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestProduct_UnmarshalJSON_NotAnObject(t *testing.T) {
	var p Product
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &p))
}

func TestPartnerMap_Category(t *testing.T) {
	partners := PartnerMap{
		"Лукойл":      "fuel",
		"Лукойл-Авто": "auto_service",
		"Пятёрочка":   "groceries",
	}

	tests := []struct {
		text     string
		want     string
		wantFind bool
	}{
		{"АЗС ЛУКОЙЛ №12", "fuel", true},
		{"Сервис Лукойл-Авто", "auto_service", true},
		{"пятёрочка у дома", "groceries", true},
		{"Кафе", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := partners.Category(tt.text)
			assert.Equal(t, tt.wantFind, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := PartnerMap(nil).Category("Лукойл")
	assert.False(t, ok)
}
