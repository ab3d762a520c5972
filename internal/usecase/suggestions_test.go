package usecase

import (
	"testing"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildSuggestions(t *testing.T) {
	upc := domain.BarcodeFormatInfo{Format: domain.FormatUPCA, Region: domain.RegionUS, Type: domain.CodeTypeStandard, CheckDigitValid: true}

	tests := []struct {
		name        string
		code        domain.CleanCode
		info        domain.BarcodeFormatInfo
		hint        string
		unavailable bool
		want        []string
	}{
		{
			name: "plain miss",
			code: domain.CleanCode{Value: "046000861210", Original: "046000861210"},
			info: upc,
			want: []string{SuggestionManualEntry},
		},
		{
			name: "short EAN-8 scan",
			code: domain.CleanCode{Value: "000096385074", Original: "96385074"},
			info: upc,
			want: []string{SuggestionShortEAN8, SuggestionManualEntry},
		},
		{
			name: "padded scan",
			code: domain.CleanCode{Value: "071592007746", Original: "71592007746"},
			info: upc,
			want: []string{SuggestionPadded, SuggestionManualEntry},
		},
		{
			name: "french product for a dollar user",
			code: domain.CleanCode{Value: "3017620422003", Original: "3017620422003"},
			info: domain.BarcodeFormatInfo{Format: domain.FormatEAN13, Region: domain.RegionFR, Type: domain.CodeTypeStandard, CheckDigitValid: true},
			hint: "USD",
			want: []string{SuggestionImported, SuggestionManualEntry},
		},
		{
			name: "us product for a pound user",
			code: domain.CleanCode{Value: "046000861210", Original: "046000861210"},
			info: upc,
			hint: "GBP",
			want: []string{SuggestionImported, SuggestionManualEntry},
		},
		{
			name: "domestic product",
			code: domain.CleanCode{Value: "046000861210", Original: "046000861210"},
			info: upc,
			hint: "USD",
			want: []string{SuggestionManualEntry},
		},
		{
			name:        "case code with bad check digit and outages",
			code:        domain.CleanCode{Value: "10046000861211", Original: "10046000861211"},
			info:        domain.BarcodeFormatInfo{Format: domain.FormatGTIN14, Region: domain.RegionGlobal, Type: domain.CodeTypeCase},
			hint:        "USD",
			unavailable: true,
			want:        []string{SuggestionCaseCode, SuggestionCheckDigit, SuggestionUnavailable, SuggestionManualEntry},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSuggestions(tt.code, tt.info, tt.hint, tt.unavailable)
			assert.Equal(t, tt.want, got)
		})
	}
}
