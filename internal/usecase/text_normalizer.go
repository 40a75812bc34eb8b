package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kitchenledger/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	// "10# bag" is vendor shorthand for 10 lb; "#10" can sizes are left alone
	poundMarkRegex = regexp.MustCompile(`(\d)#(\s|$)`)

	// everything except letters, digits, whitespace, hyphens and periods
	punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s.\-]+`)

	// "10lb" -> "10 lb"
	numberUnitRegex = regexp.MustCompile(`(\d)(\p{L})`)

	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// sizePattern maps a quantity+unit regex onto the unit key of the grams table
type sizePattern struct {
	re   *regexp.Regexp
	unit string
}

// sizePatterns are tried in order; the first match wins
var sizePatterns = []sizePattern{
	{regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:lb|lbs|pounds?)\b`), "lb"},
	{regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:oz|ounces?)\b`), "oz"},
	{regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:kg|kilograms?)\b`), "kg"},
	{regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:g|grams?)\b`), "g"},
	{regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:gal|gallons?)\b`), "gal"},
	{regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:qt|quarts?)\b`), "qt"},
	{regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(?:l|liters?|litres?)\b`), "l"},
}

// TextNormalizer turns raw vendor item descriptions into a comparable form
type TextNormalizer struct {
	cfg          *domain.MatchConfig
	brandPattern *regexp.Regexp
}

// NewTextNormalizer creates a normalizer driven by cfg's stopwords, brand tokens and unit map
func NewTextNormalizer(cfg *domain.MatchConfig) *TextNormalizer {
	n := &TextNormalizer{cfg: cfg}

	brands := cfg.BrandTokens()
	if len(brands) > 0 {
		alts := make([]string, 0, len(brands))
		for _, b := range brands {
			words := strings.Fields(b)
			for i := range words {
				words[i] = regexp.QuoteMeta(words[i])
			}
			alts = append(alts, strings.Join(words, `\s+`))
		}
		n.brandPattern = regexp.MustCompile(`\b(?:` + strings.Join(alts, "|") + `)\b`)
	}

	return n
}

// Normalize lowercases, strips brand tokens, canonicalizes unit names,
// removes punctuation except hyphens and collapses whitespace.
func (n *TextNormalizer) Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	s := strings.ToLower(text)
	if folded, _, err := transform.String(stripAccents, s); err == nil {
		s = folded
	}

	s = poundMarkRegex.ReplaceAllString(s, "$1 lb$2")
	s = punctuationRegex.ReplaceAllString(s, " ")
	s = numberUnitRegex.ReplaceAllString(s, "$1 $2")

	if n.brandPattern != nil {
		s = n.brandPattern.ReplaceAllString(s, " ")
	}

	words := strings.Fields(s)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		w = cleanPeriods(w)
		if w == "" || strings.Trim(w, "-") == "" {
			continue
		}
		for _, part := range strings.Fields(w) {
			if canonical, ok := n.cfg.CanonicalUnit(part); ok {
				part = canonical
			}
			kept = append(kept, part)
		}
	}

	return strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(strings.Join(kept, " "), " "))
}

// Tokenize normalizes text and splits it on whitespace and hyphens,
// dropping stopwords and tokens shorter than two characters.
func (n *TextNormalizer) Tokenize(text string) []string {
	return n.tokenizeNormalized(n.Normalize(text))
}

func (n *TextNormalizer) tokenizeNormalized(normalized string) []string {
	parts := strings.FieldsFunc(normalized, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})

	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if len([]rune(p)) < 2 || n.cfg.IsStopword(p) {
			continue
		}
		tokens = append(tokens, p)
	}
	return tokens
}

// ExtractSize finds the first quantity+unit in text and returns it on a
// grams-equivalent scale. Returns nil when no size is present.
func (n *TextNormalizer) ExtractSize(text string) *float64 {
	return n.extractSizeNormalized(n.Normalize(text))
}

func (n *TextNormalizer) extractSizeNormalized(normalized string) *float64 {
	if normalized == "" {
		return nil
	}
	for _, p := range sizePatterns {
		m := p.re.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		grams, ok := n.cfg.GramsPer(p.unit)
		if !ok {
			continue
		}
		qty, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		size := qty * grams
		return &size
	}
	return nil
}

// ExtractSalientWords returns tokens distinctive enough for the overlap pre-filter
func (n *TextNormalizer) ExtractSalientWords(text string) []string {
	return salientTokens(n.Tokenize(text))
}

// salientTokens keeps tokens of three or more characters that are not bare numbers
func salientTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len([]rune(t)) >= 3 && !isNumeric(t) {
			out = append(out, t)
		}
	}
	return out
}

// cleanPeriods keeps decimal points inside numbers and turns every other period into a space
func cleanPeriods(w string) string {
	if !strings.Contains(w, ".") {
		return w
	}
	trimmed := strings.Trim(w, ".")
	if isDecimal(trimmed) {
		return trimmed
	}
	return strings.TrimSpace(strings.ReplaceAll(trimmed, ".", " "))
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil && !strings.ContainsAny(s, "eE+-")
}
