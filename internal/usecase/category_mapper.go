package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical categories returned by the mapper
const (
	CategoryBabyFood     = "Baby Food"
	CategoryCannedSauces = "Canned Sauces"
	CategoryCannedSoups  = "Canned Soups"
	CategoryCannedFruits = "Canned Fruits"
	CategoryCannedVeg    = "Canned Vegetables"
	CategoryCannedBeans  = "Canned Beans"
	CategoryBeverages    = "Beverages"
	CategoryDairy        = "Dairy"
	CategoryCereals      = "Cereals & Breakfast"
	CategoryPastaGrains  = "Pasta & Grains"
	CategorySnacks       = "Snacks"
	CategorySweets       = "Sweets"
	CategoryBakery       = "Bakery"
	CategoryBaking       = "Baking"
	CategoryCondiments   = "Condiments"
	CategorySpices       = "Spices"
	CategoryOilsVinegars = "Oils & Vinegars"
	CategoryFrozenFoods  = "Frozen Foods"
	CategoryMeatSeafood  = "Meat & Seafood"
	CategoryProduce      = "Produce"
)

type categoryRule struct {
	category string
	keywords []string
}

// Order matters: the first rule with a matching keyword wins, so narrower
// categories sit above the broad ones that share words with them.
var categoryRules = []categoryRule{
	{CategoryBabyFood, []string{"baby-food", "baby-meal", "infant", "baby-formula", "toddler"}},
	{CategoryCannedSauces, []string{
		"enchilada-sauce", "pasta-sauce", "marinara", "tomato-sauce", "pizza-sauce",
		"cooking-sauce", "curry-sauce", "alfredo", "pesto", "bolognese",
	}},
	{CategoryCannedSoups, []string{"soup", "broth", "bouillon", "chowder", "stock-cube", "potage"}},
	{CategoryCannedFruits, []string{
		"canned-fruit", "fruits-in-syrup", "fruit-cocktail", "peaches", "pineapple",
		"mandarin", "applesauce", "apple-sauce", "compote", "fruits-in-juice",
	}},
	{CategoryCannedVeg, []string{
		"canned-vegetable", "vegetables-canned", "green-beans", "sweet-corn", "green-peas", "garden-peas",
		"carrots", "tomatoes", "mushrooms", "sauerkraut", "pickles", "legumes-en-conserve",
	}},
	{CategoryCannedBeans, []string{
		"beans", "chickpea", "lentil", "pulses", "refried", "legume",
	}},
	{CategoryBeverages, []string{
		"beverage", "drink", "juice", "soda", "mineral-water", "spring-water", "sparkling-water",
		"coffee", "green-tea", "black-tea", "herbal-tea", "iced-tea", "nectar",
		"smoothie", "boisson",
	}},
	{CategoryDairy, []string{
		"dairies", "dairy", "milk", "cheese", "yogurt", "yoghurt", "cream", "butter", "fromage",
	}},
	{CategoryCereals, []string{"breakfast", "cereal", "granola", "muesli", "oatmeal", "porridge"}},
	{CategoryPastaGrains, []string{"pasta", "noodle", "rice", "grain", "couscous", "quinoa", "spaghetti"}},
	{CategorySnacks, []string{"snack", "chips", "crisps", "crackers", "popcorn", "pretzel", "nuts"}},
	{CategorySweets, []string{"sweet", "candy", "candies", "chocolate", "confection", "dessert", "biscuit", "cookie"}},
	{CategoryBakery, []string{"bread", "bakery", "bagel", "tortilla", "pastry", "pastries", "cake", "muffin"}},
	{CategoryBaking, []string{"baking", "flour", "sugars", "yeast", "cake-mix"}},
	{CategoryCondiments, []string{
		"condiment", "sauce", "ketchup", "mustard", "mayonnaise", "dressing", "salsa",
		"spread", "jam", "honey", "syrup",
	}},
	{CategorySpices, []string{"spice", "herb", "seasoning", "salt", "pepper"}},
	{CategoryOilsVinegars, []string{"oil", "vinegar"}},
	{CategoryFrozenFoods, []string{"frozen", "ice-cream", "surgele"}},
	{CategoryMeatSeafood, []string{"meat", "poultry", "chicken", "beef", "pork", "fish", "seafood", "tuna", "sausage"}},
	{CategoryProduce, []string{"fresh-vegetable", "fresh-fruit", "vegetables", "fruits", "produce", "salad"}},
}

// Umbrella tags that nearly every product carries say nothing about it
var umbrellaSignals = map[string]bool{
	"plant based foods and beverages": true,
	"plant based foods":               true,
	"foods":                           true,
	"groceries":                       true,
	"canned foods":                    true,
}

var (
	languagePrefix = regexp.MustCompile(`^[a-z]{2}:`)
	separators     = regexp.MustCompile(`[-_/,;.]+`)
	spaces         = regexp.MustCompile(`\s+`)
)

type compiledRule struct {
	category string
	keywords []string
}

// KeywordCategoryMapper maps provider tags and free text onto the canonical
// category set by ordered keyword containment. It is read-only after
// construction and safe for concurrent use.
type KeywordCategoryMapper struct {
	rules     []compiledRule
	canonical map[string]string
	logger    *logrus.Logger
}

// NewCategoryMapper builds a mapper over the built-in keyword table
func NewCategoryMapper(logger *logrus.Logger) *KeywordCategoryMapper {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	m := &KeywordCategoryMapper{
		rules:     make([]compiledRule, 0, len(categoryRules)),
		canonical: make(map[string]string, len(categoryRules)+1),
		logger:    logger,
	}
	m.canonical[normalizeSignal(domain.CategoryOther)] = domain.CategoryOther

	for _, rule := range categoryRules {
		compiled := compiledRule{category: rule.category}
		for _, kw := range rule.keywords {
			compiled.keywords = append(compiled.keywords, normalizeSignal(kw))
		}
		m.rules = append(m.rules, compiled)
		m.canonical[normalizeSignal(rule.category)] = rule.category
	}
	return m
}

// CanonicalCategories lists every value MapCategory can return
func CanonicalCategories() []string {
	out := make([]string, 0, len(categoryRules)+1)
	for _, rule := range categoryRules {
		out = append(out, rule.category)
	}
	return append(out, domain.CategoryOther)
}

// MapCategory implements domain.CategoryMapper
func (m *KeywordCategoryMapper) MapCategory(signals []string, source string) string {
	normalized := make([]string, 0, len(signals))
	for _, s := range signals {
		n := normalizeSignal(s)
		if n == "" || umbrellaSignals[n] {
			continue
		}
		// A signal that already names a canonical category is taken as is.
		if category, ok := m.canonical[n]; ok {
			return category
		}
		normalized = append(normalized, n)
	}

	for _, rule := range m.rules {
		for _, kw := range rule.keywords {
			for _, s := range normalized {
				if strings.Contains(s, kw) {
					return rule.category
				}
			}
		}
	}

	if len(normalized) > 0 {
		m.logger.WithFields(logrus.Fields{
			"source":  source,
			"signals": normalized,
		}).Debug("No canonical category matched")
	}
	return domain.CategoryOther
}

// normalizeSignal lowercases, folds accents, drops an OFF language prefix
// ("fr:") and turns tag separators into single spaces.
func normalizeSignal(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripAccents, s); err == nil {
		s = folded
	}
	s = languagePrefix.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
