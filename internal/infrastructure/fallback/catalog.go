// Package fallback holds the small static table of products that the
// network sources are known to miss.
package fallback

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pantrylens/backend/internal/barcode"
	"github.com/pantrylens/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

type catalogFile struct {
	Products []domain.FallbackEntry `yaml:"products"`
}

// Catalog is an immutable in-memory table keyed by cleaned code
type Catalog struct {
	entries map[string]domain.FallbackEntry
}

// NewCatalog builds a catalog from entries. Codes are cleaned the same way
// scanned input is, so "71592007746" and "0-71592-00774-6" both key as
// 071592007746. Blank codes are skipped; any other invalid code is an error.
// Later duplicates replace earlier ones.
func NewCatalog(entries []domain.FallbackEntry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]domain.FallbackEntry, len(entries))}
	for i, e := range entries {
		if strings.TrimSpace(e.Code) == "" {
			continue
		}
		code, err := barcode.Validate(e.Code)
		if err != nil {
			return nil, fmt.Errorf("fallback catalog entry %d (%q): %w", i, e.Name, err)
		}
		e.Code = code.Value
		c.entries[e.Code] = e
	}
	return c, nil
}

// Default returns the catalog compiled into the binary
func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(embeddedCatalog))
}

// Load reads a catalog file; an empty path yields the embedded catalog
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fallback catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a YAML catalog
func Parse(r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding fallback catalog: %w", err)
	}
	return NewCatalog(file.Products)
}

// Lookup implements domain.FallbackCatalog
func (c *Catalog) Lookup(code string) (domain.FallbackEntry, bool) {
	e, ok := c.entries[code]
	return e, ok
}

// Len implements domain.FallbackCatalog
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Source serves catalog entries as a product source. It performs no I/O.
type Source struct {
	catalog domain.FallbackCatalog
}

// NewSource wraps a catalog as the last-resort product source
func NewSource(catalog domain.FallbackCatalog) *Source {
	return &Source{catalog: catalog}
}

// Name implements domain.ProductSource
func (s *Source) Name() string {
	return domain.SourceFallback
}

// Resolve implements domain.ProductSource
func (s *Source) Resolve(_ context.Context, req domain.ResolutionRequest) (*domain.ProviderMatch, error) {
	if s.catalog == nil {
		return nil, &domain.NoMatch{Source: domain.SourceFallback, Reason: domain.ReasonNotConfigured}
	}

	entry, ok := s.catalog.Lookup(req.Code.Value)
	if !ok {
		return nil, &domain.NoMatch{Source: domain.SourceFallback, Reason: domain.ReasonNotFound}
	}

	allergens := entry.Allergens
	if allergens == nil {
		allergens = []string{}
	}

	return &domain.ProviderMatch{
		Source: domain.SourceFallback,
		Draft: domain.NormalizedProduct{
			Found:           true,
			Code:            req.Code.Value,
			Name:            entry.Name,
			Brand:           entry.Brand,
			IngredientsText: entry.IngredientsText,
			NutritionPer100: entry.Nutrition,
			Allergens:       allergens,
			Packaging:       entry.Packaging,
			QuantityText:    entry.QuantityText,
			SourceName:      domain.SourceFallback,
		},
		CategorySignals: []string{entry.Category},
	}, nil
}
