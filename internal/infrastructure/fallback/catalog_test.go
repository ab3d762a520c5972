package fallback

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsEmbeddedCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, c.Len(), 5)

	entry, ok := c.Lookup("071592007746")
	require.True(t, ok)
	assert.Equal(t, "Canned Vegetables", entry.Category)
	require.NotNil(t, entry.Nutrition.Energy)
	assert.InDelta(t, 20.0, *entry.Nutrition.Energy, 0.001)
}

func TestParse(t *testing.T) {
	doc := `
products:
  - code: " 123456789012 "
    name: Test Soup
    category: Canned Soups
    allergens: [celery]
  - code: ""
    name: ignored
`
	c, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	entry, ok := c.Lookup("123456789012")
	require.True(t, ok)
	assert.Equal(t, "Test Soup", entry.Name)
	assert.Equal(t, []string{"celery"}, entry.Allergens)
}

func TestParse_NormalizesCodes(t *testing.T) {
	doc := `
products:
  - code: "71592007746"
    name: Short Form
  - code: "0-41196-91075-9"
    name: Dashed Form
`
	c, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	entry, ok := c.Lookup("071592007746")
	require.True(t, ok)
	assert.Equal(t, "071592007746", entry.Code)
	_, ok = c.Lookup("041196910759")
	assert.True(t, ok)
	_, ok = c.Lookup("71592007746")
	assert.False(t, ok)
}

func TestParse_RejectsInvalidCodes(t *testing.T) {
	for _, code := range []string{"12345", "000000000000", "123456789012345"} {
		doc := "products:\n  - code: \"" + code + "\"\n    name: Broken\n"
		_, err := Parse(strings.NewReader(doc))

		assert.ErrorIs(t, err, domain.ErrInvalidFormat, code)
	}
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("products:\n  - code: \"1\"\n    colour: red\n"))

	assert.Error(t, err)
}

func TestParse_EmptyDocument(t *testing.T) {
	c, err := Parse(strings.NewReader(""))

	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - code: \"999999999993\"\n    name: Custom\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	_, ok := c.Lookup("999999999993")
	assert.True(t, ok)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	c, err = Load("")
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 0)
}

func TestSource_Resolve(t *testing.T) {
	c, err := NewCatalog([]domain.FallbackEntry{
		{Code: "071592007746", Name: "Cut Green Beans", Brand: "Allens", Category: "Canned Vegetables"},
	})
	require.NoError(t, err)
	s := NewSource(c)

	match, err := s.Resolve(context.Background(), domain.ResolutionRequest{
		Code: domain.CleanCode{Value: "071592007746", Original: "71592007746"},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.SourceFallback, s.Name())
	assert.Equal(t, domain.SourceFallback, match.Draft.SourceName)
	assert.Equal(t, "Cut Green Beans", match.Draft.Name)
	assert.True(t, match.Draft.Found)
	assert.Equal(t, []string{"Canned Vegetables"}, match.CategorySignals)
	assert.NotNil(t, match.Draft.Allergens)
	assert.Empty(t, match.Attempts)
}

func TestSource_Miss(t *testing.T) {
	c, err := NewCatalog(nil)
	require.NoError(t, err)
	s := NewSource(c)

	match, err := s.Resolve(context.Background(), domain.ResolutionRequest{
		Code: domain.CleanCode{Value: "000000123456"},
	})

	assert.Nil(t, match)
	assert.ErrorIs(t, err, domain.ErrNoMatch)
}

func TestSource_NilCatalog(t *testing.T) {
	_, err := NewSource(nil).Resolve(context.Background(), domain.ResolutionRequest{})

	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}
