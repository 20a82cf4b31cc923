// internal/catalog/productsync/sync.go
package productsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "sales-script-workers/internal/common/errors"
	commonhttp "sales-script-workers/internal/common/http"
	"sales-script-workers/internal/common/logger"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"
)

const (
	maxPageSize   = 16 << 20
	nextDataID    = "__NEXT_DATA__"
	tariffsPath   = "props.pageProps.tariffs"
	DefaultOrigin = "https://sovcombank.ru/"
)

// Source is a product page whose tariffs feed one products.json entry.
type Source struct {
	Key string `mapstructure:"key"`
	URL string `mapstructure:"url"`
}

// DefaultSources are the pages of the three products the scripts recommend.
var DefaultSources = []Source{
	{Key: "prime_plus", URL: "https://sovcombank.ru/apply/credit/kredit-na-kartu/"},
	{Key: "car_pledge_loan", URL: "https://sovcombank.ru/credits/cash/pod-zalog-avto-"},
	{Key: "real_estate_pledge_loan", URL: "https://sovcombank.ru/credits/cash/alternativa"},
}

// BrowserHeaders are sent with every page request; the site rejects bare clients.
var BrowserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3",
	"Cache-Control":             "max-age=0",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "same-origin",
	"Sec-Fetch-User":            "?1",
	"Upgrade-Insecure-Requests": "1",
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
}

// BrowserOptions returns client options that set BrowserHeaders.
func BrowserOptions() []commonhttp.Option {
	keys := make([]string, 0, len(BrowserHeaders))
	for k := range BrowserHeaders {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make([]commonhttp.Option, 0, len(keys))
	for _, k := range keys {
		opts = append(opts, commonhttp.WithHeader(k, BrowserHeaders[k]))
	}
	return opts
}

// Entry is one products.json record written by the updater.
// Rate is null when the page lists no rate.
type Entry struct {
	Rate      *float64 `json:"Ставка"`
	Term      int      `json:"Срок"`
	UpdatedAt string   `json:"Обновлено"`
}

// PageFetcher is satisfied by *commonhttp.Client.
type PageFetcher interface {
	GetWith(ctx context.Context, url string, limit int64, header http.Header) ([]byte, error)
}

type Syncer struct {
	client PageFetcher
	origin string
	logger logger.Logger
	now    func() time.Time
}

// NewSyncer creates a syncer. origin is visited once before the product pages so
// that session cookies are set; an empty origin skips the visit.
func NewSyncer(client PageFetcher, origin string, log logger.Logger) *Syncer {
	return &Syncer{
		client: client,
		origin: origin,
		logger: log.WithFields(map[string]interface{}{"component": "products-sync"}),
		now:    time.Now,
	}
}

// Sync fetches every source in order and returns the entries keyed by source key.
// Any page failure aborts the run so that a partial products.json is never written.
func (s *Syncer) Sync(ctx context.Context, sources []Source) (map[string]Entry, error) {
	if s.origin != "" {
		if _, err := s.client.GetWith(ctx, s.origin, maxPageSize, nil); err != nil {
			return nil, apperrors.NewExternalServiceError("product-site", err)
		}
	}

	stamp := s.now().UTC().Format("2006-01-02T15:04:05.000000") + "Z"
	entries := make(map[string]Entry, len(sources))

	for _, src := range sources {
		page, err := s.fetchPage(ctx, src.URL)
		if err != nil {
			return nil, apperrors.NewExternalServiceError("product-site", fmt.Errorf("%s: %w", src.Key, err))
		}

		tariffs, err := ParseTariffs(page)
		if err != nil {
			s.logger.Warn("no tariff data on page", map[string]interface{}{
				"product": src.Key,
				"url":     src.URL,
				"error":   err.Error(),
			})
		}

		entries[src.Key] = Entry{Rate: tariffs.Rate, Term: tariffs.Term, UpdatedAt: stamp}
		s.logger.Info("product synced", map[string]interface{}{
			"product": src.Key,
			"rate":    tariffs.Rate,
			"term":    tariffs.Term,
		})
	}
	return entries, nil
}

// fetchPage repeats a 401 with the origin as Referer.
func (s *Syncer) fetchPage(ctx context.Context, url string) ([]byte, error) {
	page, err := s.client.GetWith(ctx, url, maxPageSize, nil)

	var statusErr *commonhttp.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized && s.origin != "" {
		return s.client.GetWith(ctx, url, maxPageSize, http.Header{"Referer": {s.origin}})
	}
	return page, err
}

// Tariffs is what a product page says about its rate and term.
type Tariffs struct {
	Rate *float64
	Term int
}

var ErrNoNextData = errors.New("page has no __NEXT_DATA__ script")

var numberPattern = regexp.MustCompile(`[\d.,]+`)

// ParseTariffs reads props.pageProps.tariffs from the page's __NEXT_DATA__ script.
// Rate is the lowest number found in minRate, maxRate or rate (strings like
// "от 9,9%" included); Term is the longest integer minTermMonths or maxTermMonths.
func ParseTariffs(page []byte) (Tariffs, error) {
	payload, err := nextData(page)
	if err != nil {
		return Tariffs{}, err
	}
	if !gjson.Valid(payload) {
		return Tariffs{}, errors.New("__NEXT_DATA__ is not valid JSON")
	}

	var (
		out      Tariffs
		haveRate bool
		lowest   float64
	)
	gjson.Get(payload, tariffsPath).ForEach(func(_, tariff gjson.Result) bool {
		for _, field := range []string{"minRate", "maxRate", "rate"} {
			v := tariff.Get(field)
			if !v.Exists() || v.Type == gjson.Null {
				continue
			}
			for _, num := range numberPattern.FindAllString(v.String(), -1) {
				f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", "."), 64)
				if err != nil {
					continue
				}
				if !haveRate || f < lowest {
					lowest, haveRate = f, true
				}
			}
		}

		for _, field := range []string{"minTermMonths", "maxTermMonths"} {
			v := tariff.Get(field)
			if v.Type != gjson.Number || v.Num != float64(int64(v.Num)) {
				continue
			}
			if term := int(v.Int()); term > out.Term {
				out.Term = term
			}
		}
		return true
	})

	if haveRate {
		out.Rate = &lowest
	}
	return out, nil
}

func nextData(page []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", err
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == nextDataID {
					found = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if found == nil || found.FirstChild == nil || strings.TrimSpace(found.FirstChild.Data) == "" {
		return "", ErrNoNextData
	}
	return found.FirstChild.Data, nil
}

// Merge writes entries over an existing products.json, keeping products and fields
// the updater does not manage (cashback, discounts, hand-added products).
// existing may be empty.
func Merge(existing []byte, entries map[string]Entry) ([]byte, error) {
	doc := make(map[string]map[string]json.RawMessage)
	if len(bytes.TrimSpace(existing)) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, fmt.Errorf("existing products.json: %w", err)
		}
	}

	for key, e := range entries {
		fields, ok := doc[key]
		if !ok || fields == nil {
			fields = make(map[string]json.RawMessage)
			doc[key] = fields
		}
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		var updated map[string]json.RawMessage
		if err := json.Unmarshal(raw, &updated); err != nil {
			return nil, err
		}
		for k, v := range updated {
			fields[k] = v
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
