package openfoodfacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/pantrylens/backend/internal/barcode"
	"github.com/pantrylens/backend/internal/domain"
)

// saltToSodium is the mass ratio Open Food Facts itself uses
const saltToSodium = 2.5

const kjPerKcal = 4.184

// ProductResponse is the /product/{code}.json envelope
type ProductResponse struct {
	Code          string      `json:"code"`
	Status        flexNumber  `json:"status"`
	StatusVerbose string      `json:"status_verbose"`
	Product       *OFFProduct `json:"product"`
}

// OFFProduct is the subset of an Open Food Facts product record we read
type OFFProduct struct {
	Code                   string         `json:"code"`
	ProductName            string         `json:"product_name"`
	ProductNameEn          string         `json:"product_name_en"`
	GenericName            string         `json:"generic_name"`
	GenericNameEn          string         `json:"generic_name_en"`
	AbbreviatedProductName string         `json:"abbreviated_product_name"`
	Brands                 string         `json:"brands"`
	Categories             string         `json:"categories"`
	CategoriesTags         []string       `json:"categories_tags"`
	IngredientsText        string         `json:"ingredients_text"`
	IngredientsTextEn      string         `json:"ingredients_text_en"`
	ImageURL               string         `json:"image_url"`
	ImageFrontURL          string         `json:"image_front_url"`
	Nutriments             map[string]any `json:"nutriments"`
	NutriscoreGrade        string         `json:"nutriscore_grade"`
	NutritionGrades        string         `json:"nutrition_grades"`
	NovaGroup              flexNumber     `json:"nova_group"`
	EcoscoreGrade          string         `json:"ecoscore_grade"`
	AllergensTags          []string       `json:"allergens_tags"`
	Packaging              string         `json:"packaging"`
	Quantity               string         `json:"quantity"`
}

// Name returns the best available product name using the fallback order:
// product_name → product_name_en → generic_name_en → generic_name →
// abbreviated_product_name.
func (p *OFFProduct) Name() string {
	for _, candidate := range []string{
		p.ProductName, p.ProductNameEn, p.GenericNameEn, p.GenericName, p.AbbreviatedProductName,
	} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return ""
}

// Brand returns the first entry of the comma separated brands field
func (p *OFFProduct) Brand() string {
	first, _, _ := strings.Cut(p.Brands, ",")
	return strings.TrimSpace(first)
}

// CategorySignals returns taxonomy tags, or the free-text categories split
// on commas when no tags are present
func (p *OFFProduct) CategorySignals() []string {
	if len(p.CategoriesTags) > 0 {
		return p.CategoriesTags
	}
	var signals []string
	for _, part := range strings.Split(p.Categories, ",") {
		if s := strings.TrimSpace(part); s != "" {
			signals = append(signals, s)
		}
	}
	return signals
}

// Nutrition extracts per-100g values. Energy falls back to kJ and sodium to
// salt when the primary field is missing.
func (p *OFFProduct) Nutrition() domain.Nutrition {
	n := domain.Nutrition{
		Fat:           nutriment(p.Nutriments, "fat_100g", 0, 100),
		Carbohydrates: nutriment(p.Nutriments, "carbohydrates_100g", 0, 100),
		Protein:       nutriment(p.Nutriments, "proteins_100g", 0, 100),
		Fiber:         nutriment(p.Nutriments, "fiber_100g", 0, 100),
		Sugars:        nutriment(p.Nutriments, "sugars_100g", 0, 100),
		Sodium:        nutriment(p.Nutriments, "sodium_100g", 0, 100),
	}

	n.Energy = nutriment(p.Nutriments, "energy-kcal_100g", 0, 10000)
	if n.Energy == nil {
		if kj := nutriment(p.Nutriments, "energy-kj_100g", 0, 41840); kj != nil {
			n.Energy = roundedPtr(*kj / kjPerKcal)
		}
	}

	if n.Sodium == nil {
		if salt := nutriment(p.Nutriments, "salt_100g", 0, 100); salt != nil {
			n.Sodium = roundedPtr(*salt / saltToSodium)
		}
	}

	return n
}

// Scores extracts the quality grades, dropping placeholder values
func (p *OFFProduct) Scores() domain.Scores {
	var s domain.Scores

	grade := p.NutriscoreGrade
	if grade == "" {
		grade = p.NutritionGrades
	}
	s.Nutriscore = gradePtr(grade)
	s.Ecoscore = gradePtr(p.EcoscoreGrade)

	if nova := p.NovaGroup.Int(); nova >= 1 && nova <= 4 {
		s.NovaGroup = &nova
	}
	return s
}

// Allergens strips the language prefix from allergen tags ("en:milk" → "milk")
func (p *OFFProduct) Allergens() []string {
	allergens := make([]string, 0, len(p.AllergensTags))
	for _, tag := range p.AllergensTags {
		if tag = stripLanguagePrefix(tag); tag != "" {
			allergens = append(allergens, tag)
		}
	}
	return allergens
}

// ToMatch converts an Open Food Facts response into a provider match for
// the requested code.
func ToMatch(resp *ProductResponse, requested, endpoint string, regional bool) *domain.ProviderMatch {
	p := resp.Product

	returned := resp.Code
	if returned == "" {
		returned = p.Code
	}
	if returned == "" {
		returned = requested
	}
	approximate := barcode.TrimLeadingZeros(returned) != barcode.TrimLeadingZeros(requested)

	ingredients := p.IngredientsTextEn
	if ingredients == "" {
		ingredients = p.IngredientsText
	}
	image := p.ImageFrontURL
	if image == "" {
		image = p.ImageURL
	}
	name := p.Name()
	if name == "" {
		name = strings.TrimSpace(p.Brand() + " product " + requested)
	}

	return &domain.ProviderMatch{
		Source:      domain.SourceOpenFoodFacts,
		Endpoint:    endpoint,
		Regional:    regional,
		Approximate: approximate,
		Draft: domain.NormalizedProduct{
			Found:            true,
			Code:             requested,
			Name:             name,
			Brand:            p.Brand(),
			IngredientsText:  strings.TrimSpace(ingredients),
			ImageURL:         image,
			NutritionPer100:  p.Nutrition(),
			Scores:           p.Scores(),
			Allergens:        p.Allergens(),
			Packaging:        strings.TrimSpace(p.Packaging),
			QuantityText:     strings.TrimSpace(p.Quantity),
			SourceName:       domain.SourceOpenFoodFacts,
			SourceURL:        productPageURL(endpoint, returned),
			RegionalMatch:    regional,
			ApproximateMatch: approximate,
		},
		CategorySignals: p.CategorySignals(),
	}
}

// productPageURL builds the human facing page on the mirror that answered
func productPageURL(endpoint, code string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s/product/%s", u.Scheme, u.Host, code)
}

func stripLanguagePrefix(tag string) string {
	if i := strings.Index(tag, ":"); i >= 0 && i <= 3 {
		tag = tag[i+1:]
	}
	return strings.TrimSpace(tag)
}

func gradePtr(grade string) *string {
	g := strings.ToLower(strings.TrimSpace(grade))
	switch g {
	case "a", "b", "c", "d", "e":
		return &g
	}
	return nil
}

// nutriment returns the value for key when present and within [min, max]
func nutriment(m map[string]any, key string, min, max float64) *float64 {
	v, ok := extractFloat(m, key)
	if !ok || v < min || v > max {
		return nil
	}
	return &v
}

// extractFloat coerces a nutriments map value to float64.
func extractFloat(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}

func roundedPtr(v float64) *float64 {
	r := math.Round(v*1000) / 1000
	return &r
}

// flexNumber accepts numbers, numeric strings and the "success"/"failure"
// words different API versions use for the same fields.
type flexNumber struct {
	value int
}

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "success", "success_with_warnings", "product found":
			f.value = 1
			return nil
		case "failure", "", "product not found":
			f.value = 0
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f.value = int(n)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	f.value = int(n)
	return nil
}

// Int returns the decoded value, zero when absent
func (f flexNumber) Int() int {
	return f.value
}
