package barcode

import (
	"strconv"

	"github.com/pantrylens/backend/internal/domain"
)

// prefixRange maps a range of EAN-13 three-digit prefixes to a region.
// GS1 allocations are finer grained than this; the result is a hint only.
type prefixRange struct {
	low, high int
	region    domain.Region
}

var ean13Regions = []prefixRange{
	{0, 139, domain.RegionUS},
	{300, 379, domain.RegionFR},
	{500, 509, domain.RegionUK},
}

// Detect classifies a cleaned code. It is a pure function of the code's
// length and, for EAN-13, its first three digits.
func Detect(code domain.CleanCode) domain.BarcodeFormatInfo {
	value := code.Value
	info := domain.BarcodeFormatInfo{CheckDigitValid: CheckDigitValid(value)}

	switch len(value) {
	case 8:
		info.Format, info.Region, info.Type = domain.FormatEAN8, domain.RegionInternational, domain.CodeTypeShort
	case 12:
		info.Format, info.Region, info.Type = domain.FormatUPCA, domain.RegionUS, domain.CodeTypeStandard
	case 13:
		info.Format, info.Region, info.Type = domain.FormatEAN13, regionForPrefix(value), domain.CodeTypeStandard
	case 14:
		info.Format, info.Region, info.Type = domain.FormatGTIN14, domain.RegionGlobal, domain.CodeTypeCase
	default:
		info.Format, info.Region, info.Type = domain.FormatUnknown, domain.RegionUnknown, domain.CodeTypeInvalid
		info.CheckDigitValid = false
	}

	return info
}

func regionForPrefix(value string) domain.Region {
	prefix, err := strconv.Atoi(value[:3])
	if err != nil {
		return domain.RegionUnknown
	}
	for _, r := range ean13Regions {
		if prefix >= r.low && prefix <= r.high {
			return r.region
		}
	}
	return domain.RegionInternational
}
