package domain

// BarcodeFormat is the symbology family inferred from a cleaned code's length
type BarcodeFormat string

const (
	FormatEAN8    BarcodeFormat = "EAN-8"
	FormatUPCA    BarcodeFormat = "UPC-A"
	FormatEAN13   BarcodeFormat = "EAN-13"
	FormatGTIN14  BarcodeFormat = "GTIN-14"
	FormatUnknown BarcodeFormat = "UNKNOWN"
)

// Region is a best-effort country hint derived from the numeric prefix.
// It is never authoritative and only feeds diagnostics and suggestions.
type Region string

const (
	RegionUS            Region = "US"
	RegionUK            Region = "UK"
	RegionFR            Region = "FR"
	RegionInternational Region = "INTERNATIONAL"
	RegionGlobal        Region = "GLOBAL"
	RegionUnknown       Region = "UNKNOWN"
)

// CodeType describes what kind of item a barcode usually identifies
type CodeType string

const (
	CodeTypeShort    CodeType = "short"
	CodeTypeStandard CodeType = "standard"
	CodeTypeCase     CodeType = "case"
	CodeTypeInvalid  CodeType = "invalid"
)

// CleanCode is a digits-only barcode, padded to 12 digits when the scanned
// input was 6 to 11 digits long.
type CleanCode struct {
	Value    string `json:"value"`
	Original string `json:"original"` // digits as scanned, before padding
}

// String returns the canonical (possibly padded) code
func (c CleanCode) String() string {
	return c.Value
}

// Padded reports whether leading zeros were added during validation
func (c CleanCode) Padded() bool {
	return len(c.Original) != len(c.Value)
}

// BarcodeFormatInfo is derived purely from a CleanCode
type BarcodeFormatInfo struct {
	Format          BarcodeFormat `json:"format"`
	Region          Region        `json:"region"`
	Type            CodeType      `json:"type"`
	CheckDigitValid bool          `json:"checkDigitValid"`
}
