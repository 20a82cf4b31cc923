// internal/scripting/render.go
package scripting

import (
	"fmt"
	"html"
	"strings"
)

// NoRecommendationsMessage is shown when no rule applies and no default exists.
const NoRecommendationsMessage = "Нет рекомендаций"

// Fragment is one generated script ready for display.
type Fragment struct {
	Index      int    `json:"index"`
	RuleKey    string `json:"ruleKey"`
	Product    string `json:"product"`
	Title      string `json:"title"`
	Conditions string `json:"conditions"`
	Script     string `json:"script"`
	HTML       string `json:"html"`
}

// Title is "<index>. <product display name>", or just the index without a name.
func Title(index int, productTitle string) string {
	productTitle = strings.TrimSpace(productTitle)
	if productTitle == "" {
		return fmt.Sprintf("Скрипт %d", index)
	}
	return fmt.Sprintf("%d. %s", index, productTitle)
}

// RenderFragment produces the script card markup. All text is escaped.
func RenderFragment(title, conditions, script string) string {
	var b strings.Builder
	b.WriteString(`<div class="script-card">`)
	b.WriteString(`<h3>`)
	b.WriteString(html.EscapeString(title))
	b.WriteString(`</h3><p>`)
	if conditions != "" {
		b.WriteString(`<span class="conditions">`)
		b.WriteString(html.EscapeString(conditions))
		b.WriteString(`</span> `)
	}
	b.WriteString(html.EscapeString(script))
	b.WriteString(`</p></div>`)
	return b.String()
}

// RenderEmpty is the card shown instead of scripts when nothing was recommended.
func RenderEmpty() string {
	return `<div class="script-card empty"><p>` + NoRecommendationsMessage + `</p></div>`
}
