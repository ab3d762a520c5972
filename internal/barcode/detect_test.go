package barcode

import (
	"testing"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		wantFormat domain.BarcodeFormat
		wantRegion domain.Region
		wantType   domain.CodeType
	}{
		{"EAN-8", "96385074", domain.FormatEAN8, domain.RegionInternational, domain.CodeTypeShort},
		{"UPC-A", "071592007746", domain.FormatUPCA, domain.RegionUS, domain.CodeTypeStandard},
		{"EAN-13 US prefix", "0123456789012", domain.FormatEAN13, domain.RegionUS, domain.CodeTypeStandard},
		{"EAN-13 upper US prefix", "1391234567890", domain.FormatEAN13, domain.RegionUS, domain.CodeTypeStandard},
		{"EAN-13 UK prefix", "5031234567890", domain.FormatEAN13, domain.RegionUK, domain.CodeTypeStandard},
		{"EAN-13 FR prefix", "3101234567890", domain.FormatEAN13, domain.RegionFR, domain.CodeTypeStandard},
		{"EAN-13 other prefix", "9991234567890", domain.FormatEAN13, domain.RegionInternational, domain.CodeTypeStandard},
		{"EAN-13 German prefix", "4001234567890", domain.FormatEAN13, domain.RegionInternational, domain.CodeTypeStandard},
		{"GTIN-14", "10012345678902", domain.FormatGTIN14, domain.RegionGlobal, domain.CodeTypeCase},
		{"unexpected length", "12345", domain.FormatUnknown, domain.RegionUnknown, domain.CodeTypeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Detect(domain.CleanCode{Value: tt.code, Original: tt.code})

			assert.Equal(t, tt.wantFormat, info.Format)
			assert.Equal(t, tt.wantRegion, info.Region)
			assert.Equal(t, tt.wantType, info.Type)
		})
	}
}

func TestDetect_IsDeterministic(t *testing.T) {
	code := domain.CleanCode{Value: "5031234567890", Original: "5031234567890"}

	first := Detect(code)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Detect(code))
	}
}

func TestDetect_ScenarioElevenDigitInput(t *testing.T) {
	code, err := Validate("71592007746")
	assert.NoError(t, err)

	info := Detect(code)

	assert.Equal(t, "071592007746", code.Value)
	assert.Equal(t, domain.FormatUPCA, info.Format)
	assert.Equal(t, domain.RegionUS, info.Region)
	assert.Equal(t, domain.CodeTypeStandard, info.Type)
	assert.True(t, info.CheckDigitValid)
}
