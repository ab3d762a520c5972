// Package endpoints orders the candidate hosts of each product source for a
// caller's regional hint.
package endpoints

import (
	"strings"

	"github.com/pantrylens/backend/internal/domain"
)

// Currency hints understood by the selector
const (
	CurrencyUSD = "USD"
	CurrencyGBP = "GBP"
	CurrencyEUR = "EUR"
)

// Endpoint is one candidate base URL for a source
type Endpoint struct {
	URL string
	// Preferred marks the mirror that belongs to the caller's own region
	Preferred bool
}

// OpenFoodFactsHosts are the three Open Food Facts mirrors
type OpenFoodFactsHosts struct {
	Global string
	US     string
	UK     string
}

// Selector is read-only after construction and safe for concurrent use
type Selector struct {
	off  OpenFoodFactsHosts
	usda string
}

// NewSelector creates a selector from configured hosts
func NewSelector(off OpenFoodFactsHosts, usdaBaseURL string) *Selector {
	return &Selector{off: off, usda: strings.TrimRight(usdaBaseURL, "/")}
}

// Select returns the endpoints to try for source, most promising first.
// The global Open Food Facts mirror leads for most hints because it has the
// broadest catalog; regional mirrors follow since they sometimes carry
// listings the global one lacks.
func (s *Selector) Select(source, regionHint string) []Endpoint {
	switch source {
	case domain.SourceOpenFoodFacts:
		return s.selectOpenFoodFacts(NormalizeRegionHint(regionHint))
	case domain.SourceUSDA:
		if s.usda == "" {
			return nil
		}
		return []Endpoint{{URL: s.usda, Preferred: true}}
	default:
		return nil
	}
}

func (s *Selector) selectOpenFoodFacts(currency string) []Endpoint {
	var ordered []Endpoint
	switch currency {
	case CurrencyUSD:
		ordered = []Endpoint{
			{URL: s.off.Global},
			{URL: s.off.US, Preferred: true},
			{URL: s.off.UK},
		}
	case CurrencyGBP:
		ordered = []Endpoint{
			{URL: s.off.UK, Preferred: true},
			{URL: s.off.Global},
			{URL: s.off.US},
		}
	default:
		ordered = []Endpoint{
			{URL: s.off.Global, Preferred: true},
			{URL: s.off.UK},
			{URL: s.off.US},
		}
	}

	// A mirror configured twice is listed once, at its first position.
	result := make([]Endpoint, 0, len(ordered))
	index := make(map[string]int, len(ordered))
	for _, ep := range ordered {
		if ep.URL == "" {
			continue
		}
		ep.URL = strings.TrimRight(ep.URL, "/")
		if i, ok := index[ep.URL]; ok {
			result[i].Preferred = result[i].Preferred || ep.Preferred
			continue
		}
		index[ep.URL] = len(result)
		result = append(result, ep)
	}
	return result
}

// URLs flattens endpoints into their base URLs, keeping order
func URLs(eps []Endpoint) []string {
	urls := make([]string, len(eps))
	for i, ep := range eps {
		urls[i] = ep.URL
	}
	return urls
}

// IsPreferred reports whether url is the preferred endpoint in eps
func IsPreferred(eps []Endpoint, url string) bool {
	for _, ep := range eps {
		if ep.URL == url {
			return ep.Preferred
		}
	}
	return false
}

var localeCurrencies = map[string]string{
	"US": CurrencyUSD,
	"GB": CurrencyGBP,
	"UK": CurrencyGBP,
	"FR": CurrencyEUR,
	"DE": CurrencyEUR,
	"ES": CurrencyEUR,
	"IT": CurrencyEUR,
	"NL": CurrencyEUR,
	"IE": CurrencyEUR,
}

// NormalizeRegionHint accepts a currency ("usd"), a locale ("en-US", "en_GB")
// or a bare country code ("UK") and returns an upper-case currency hint.
// Unknown hints are returned upper-cased so the default ordering applies.
func NormalizeRegionHint(hint string) string {
	h := strings.ToUpper(strings.TrimSpace(hint))
	if h == "" {
		return ""
	}

	switch h {
	case CurrencyUSD, CurrencyGBP, CurrencyEUR:
		return h
	}

	if i := strings.LastIndexAny(h, "-_"); i >= 0 {
		h = h[i+1:]
	}
	if currency, ok := localeCurrencies[h]; ok {
		return currency
	}
	return strings.ToUpper(strings.TrimSpace(hint))
}
