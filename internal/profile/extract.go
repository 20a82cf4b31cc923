// internal/profile/extract.go
package profile

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	apperrors "sales-script-workers/internal/common/errors"
	"sales-script-workers/internal/models"

	"golang.org/x/net/html"
)

// Selectors names the CSS classes the client card is marked up with.
// OperationItem is the tag of one operation inside the Operations container.
type Selectors struct {
	FullName        string `json:"fullName"`
	Category        string `json:"category"`
	RemainingMonths string `json:"remainingMonths"`
	Operations      string `json:"operations"`
	OperationItem   string `json:"operationItem"`
	MCCAttribute    string `json:"mccAttribute"`
}

// DefaultSelectors matches the CRM client page.
var DefaultSelectors = Selectors{
	FullName:        "full-name",
	Category:        "client-category",
	RemainingMonths: "credit-remaining-months",
	Operations:      "client-operations",
	OperationItem:   "li",
	MCCAttribute:    "data-mcc",
}

func (s Selectors) withDefaults() Selectors {
	trim := func(v, def string) string {
		v = strings.TrimPrefix(strings.TrimSpace(v), ".")
		if v == "" {
			return def
		}
		return v
	}
	return Selectors{
		FullName:        trim(s.FullName, DefaultSelectors.FullName),
		Category:        trim(s.Category, DefaultSelectors.Category),
		RemainingMonths: trim(s.RemainingMonths, DefaultSelectors.RemainingMonths),
		Operations:      trim(s.Operations, DefaultSelectors.Operations),
		OperationItem:   strings.ToLower(trim(s.OperationItem, DefaultSelectors.OperationItem)),
		MCCAttribute:    trim(s.MCCAttribute, DefaultSelectors.MCCAttribute),
	}
}

var monthsPattern = regexp.MustCompile(`-?\d+`)

// Extract builds a client profile from a page snapshot. Missing elements give
// empty values; a month count without digits gives 0; an operation whose MCC
// attribute is absent or not a number gets a nil MCC.
func Extract(r io.Reader, sel Selectors) (models.ClientProfile, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return models.ClientProfile{}, apperrors.NewProfileExtractionFailedError(err)
	}
	return FromDocument(doc, sel), nil
}

// ExtractString is Extract over an in-memory snapshot.
func ExtractString(page string, sel Selectors) (models.ClientProfile, error) {
	return Extract(strings.NewReader(page), sel)
}

// FromDocument reads the profile from an already parsed page.
func FromDocument(doc *html.Node, sel Selectors) models.ClientProfile {
	sel = sel.withDefaults()

	var fullName, category string
	if n := findFirst(doc, byClass(sel.FullName)); n != nil {
		fullName = textContent(n)
	}
	if n := findFirst(doc, byClass(sel.Category)); n != nil {
		category = textContent(n)
	}

	months := 0
	if n := findFirst(doc, byClass(sel.RemainingMonths)); n != nil {
		months = parseMonths(textContent(n))
	}

	var operations []models.Operation
	for _, container := range findAll(doc, byClass(sel.Operations)) {
		for _, item := range findAll(container, byTag(sel.OperationItem)) {
			operations = append(operations, models.Operation{
				MCC:  parseMCC(item, sel.MCCAttribute),
				Text: textContent(item),
			})
		}
	}

	return models.NewClientProfile(fullName, category, months, operations)
}

func parseMonths(text string) int {
	m := monthsPattern.FindString(text)
	if m == "" {
		return 0
	}
	v, err := strconv.Atoi(m)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseMCC(n *html.Node, attr string) *int {
	raw, ok := attrValue(n, attr)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return models.IntPtr(v)
}

type matcher func(*html.Node) bool

func byClass(class string) matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		v, _ := attrValue(n, "class")
		for _, c := range strings.Fields(v) {
			if c == class {
				return true
			}
		}
		return false
	}
}

func byTag(tag string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func findFirst(n *html.Node, match matcher) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns matching descendants of n in document order, not descending into matches.
func findAll(n *html.Node, match matcher) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if match(c) {
			out = append(out, c)
			continue
		}
		out = append(out, findAll(c, match)...)
	}
	return out
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// textContent approximates innerText: text nodes joined, whitespace collapsed,
// script and style skipped.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
