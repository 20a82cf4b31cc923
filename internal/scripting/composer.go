// internal/scripting/composer.go
package scripting

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"sales-script-workers/internal/models"
)

// Composer assembles script text from a rule's phrase blocks.
type Composer struct {
	Rand RandomSource
	// ExcludeUsed avoids repeating a template within one script while other
	// candidates remain.
	ExcludeUsed bool
}

func NewComposer(rnd RandomSource, excludeUsed bool) *Composer {
	if rnd == nil {
		rnd = NewRandomSource()
	}
	return &Composer{Rand: rnd, ExcludeUsed: excludeUsed}
}

// Compose builds the script for rule. Blocks missing from the catalog contribute
// nothing. The result has single spaces and starts with a capital letter.
func (c *Composer) Compose(rule models.Rule, phrases models.PhraseCatalog, product *models.Product, client models.ClientProfile) string {
	values := Placeholders(product, client)
	used := make(map[string]struct{})

	parts := make([]string, 0, len(rule.PhraseBlocks))
	for _, block := range rule.PhraseBlocks {
		candidates := phrases[block]
		if len(candidates) == 0 {
			continue
		}

		template := c.pick(candidates, used)
		used[template] = struct{}{}
		parts = append(parts, Substitute(template, values))
	}

	text := strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	return capitalizeFirst(text)
}

func (c *Composer) pick(candidates []string, used map[string]struct{}) string {
	pool := candidates
	if c.ExcludeUsed && len(used) > 0 {
		fresh := make([]string, 0, len(candidates))
		for _, cand := range candidates {
			if _, seen := used[cand]; !seen {
				fresh = append(fresh, cand)
			}
		}
		if len(fresh) > 0 {
			pool = fresh
		}
	}

	if len(pool) == 1 {
		return pool[0]
	}

	rnd := c.Rand
	if rnd == nil {
		rnd = NewRandomSource()
	}
	return pool[rnd.IntN(len(pool))]
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
