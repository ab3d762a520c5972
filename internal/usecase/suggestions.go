package usecase

import (
	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/infrastructure/endpoints"
)

// Remediation hints attached to a ResolutionFailure
const (
	SuggestionShortEAN8   = "This is a short EAN-8 code; try scanning the full barcode on the package."
	SuggestionImported    = "This appears to be an imported product for your region; it may only be listed in foreign databases."
	SuggestionPadded      = "Leading zeros were added to the scanned code; check that no digits were missed."
	SuggestionCaseCode    = "This GTIN-14 usually identifies a shipping case; scan the barcode on a single item instead."
	SuggestionCheckDigit  = "The check digit does not match; the barcode may have been misread, try scanning again."
	SuggestionUnavailable = "Some product databases could not be reached; try again in a moment."
	SuggestionManualEntry = "Enter the product details manually or search by product name."
)

// homeRegions maps a normalized currency hint to the barcode region that
// counts as domestic for it
var homeRegions = map[string]domain.Region{
	endpoints.CurrencyUSD: domain.RegionUS,
	endpoints.CurrencyGBP: domain.RegionUK,
}

// BuildSuggestions derives the remediation hints for a code no source knew.
// The result is never empty.
func BuildSuggestions(code domain.CleanCode, info domain.BarcodeFormatInfo, regionHint string, sourcesUnavailable bool) []string {
	var out []string

	if len(code.Original) == 8 {
		out = append(out, SuggestionShortEAN8)
	} else if code.Padded() {
		out = append(out, SuggestionPadded)
	}

	if home, ok := homeRegions[regionHint]; ok && isForeign(info.Region, home) {
		out = append(out, SuggestionImported)
	}

	if info.Type == domain.CodeTypeCase {
		out = append(out, SuggestionCaseCode)
	}

	if info.Format != domain.FormatUnknown && !info.CheckDigitValid {
		out = append(out, SuggestionCheckDigit)
	}

	if sourcesUnavailable {
		out = append(out, SuggestionUnavailable)
	}

	return append(out, SuggestionManualEntry)
}

func isForeign(region, home domain.Region) bool {
	switch region {
	case home, domain.RegionGlobal, domain.RegionUnknown:
		return false
	}
	return true
}
