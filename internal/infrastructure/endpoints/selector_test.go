package endpoints

import (
	"testing"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testHosts() OpenFoodFactsHosts {
	return OpenFoodFactsHosts{
		Global: "https://world.example.org/api/v0/product",
		US:     "https://us.example.org/api/v0/product/",
		UK:     "https://uk.example.org/api/v0/product",
	}
}

func TestSelect_OpenFoodFactsOrdering(t *testing.T) {
	s := NewSelector(testHosts(), "https://fdc.example.gov")

	tests := []struct {
		name          string
		hint          string
		wantURLs      []string
		wantPreferred string
	}{
		{
			name: "USD is global first then US then UK",
			hint: "USD",
			wantURLs: []string{
				"https://world.example.org/api/v0/product",
				"https://us.example.org/api/v0/product",
				"https://uk.example.org/api/v0/product",
			},
			wantPreferred: "https://us.example.org/api/v0/product",
		},
		{
			name: "GBP is UK first",
			hint: "gbp",
			wantURLs: []string{
				"https://uk.example.org/api/v0/product",
				"https://world.example.org/api/v0/product",
				"https://us.example.org/api/v0/product",
			},
			wantPreferred: "https://uk.example.org/api/v0/product",
		},
		{
			name: "other currencies are global then UK then US",
			hint: "EUR",
			wantURLs: []string{
				"https://world.example.org/api/v0/product",
				"https://uk.example.org/api/v0/product",
				"https://us.example.org/api/v0/product",
			},
			wantPreferred: "https://world.example.org/api/v0/product",
		},
		{
			name: "empty hint uses default order",
			hint: "",
			wantURLs: []string{
				"https://world.example.org/api/v0/product",
				"https://uk.example.org/api/v0/product",
				"https://us.example.org/api/v0/product",
			},
			wantPreferred: "https://world.example.org/api/v0/product",
		},
		{
			name: "locale hint en-GB maps to GBP",
			hint: "en-GB",
			wantURLs: []string{
				"https://uk.example.org/api/v0/product",
				"https://world.example.org/api/v0/product",
				"https://us.example.org/api/v0/product",
			},
			wantPreferred: "https://uk.example.org/api/v0/product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eps := s.Select(domain.SourceOpenFoodFacts, tt.hint)

			assert.Equal(t, tt.wantURLs, URLs(eps))
			assert.True(t, IsPreferred(eps, tt.wantPreferred))
		})
	}
}

func TestSelect_SkipsUnconfiguredHosts(t *testing.T) {
	hosts := testHosts()
	hosts.UK = ""
	s := NewSelector(hosts, "")

	eps := s.Select(domain.SourceOpenFoodFacts, "GBP")

	assert.Equal(t, []string{
		"https://world.example.org/api/v0/product",
		"https://us.example.org/api/v0/product",
	}, URLs(eps))
	assert.Empty(t, s.Select(domain.SourceUSDA, "USD"))
}

func TestSelect_DuplicateHostsListedOnce(t *testing.T) {
	hosts := testHosts()
	hosts.US = hosts.Global + "/"
	s := NewSelector(hosts, "")

	eps := s.Select(domain.SourceOpenFoodFacts, "USD")

	assert.Equal(t, []string{
		"https://world.example.org/api/v0/product",
		"https://uk.example.org/api/v0/product",
	}, URLs(eps))
	assert.True(t, IsPreferred(eps, "https://world.example.org/api/v0/product"))
}

func TestSelect_USDAHasSingleEndpoint(t *testing.T) {
	s := NewSelector(testHosts(), "https://fdc.example.gov/")

	eps := s.Select(domain.SourceUSDA, "GBP")

	assert.Equal(t, []string{"https://fdc.example.gov"}, URLs(eps))
	assert.True(t, eps[0].Preferred)
}

func TestSelect_UnknownSource(t *testing.T) {
	s := NewSelector(testHosts(), "https://fdc.example.gov")

	assert.Nil(t, s.Select("nonexistent", "USD"))
}

func TestNormalizeRegionHint(t *testing.T) {
	tests := []struct {
		hint string
		want string
	}{
		{"USD", "USD"},
		{" usd ", "USD"},
		{"gbp", "GBP"},
		{"en-US", "USD"},
		{"en_GB", "GBP"},
		{"UK", "GBP"},
		{"fr-FR", "EUR"},
		{"JPY", "JPY"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeRegionHint(tt.hint))
		})
	}
}
