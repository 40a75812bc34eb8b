package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
)

// canSizes maps can numbers to their nominal net weight in ounces
var canSizes = map[string]decimal.Decimal{
	"1":   dec("11"),
	"2":   dec("20"),
	"2.5": dec("28"),
	"3":   dec("46"),
	"5":   dec("56"),
	"10":  dec("96"),
	"300": dec("15"),
	"303": dec("16"),
}

// Pieces per count unit; anything not listed is one
var countUnitFactors = map[string]int{
	"dz":    12,
	"doz":   12,
	"dozen": 12,
}

const (
	packNumber   = `(\d+(?:\.\d+)?)`
	packUnit     = `(fl\.?\s*oz|[a-z]+\.?|#)`
	packTrailing = `(?:[\s/,].*)?$`
)

// packPattern is one notation in the parse cascade
type packPattern struct {
	name  domain.PatternType
	re    *regexp.Regexp
	build func(m []string) (domain.ParsedPackSize, bool)
}

// PackSizeParser turns vendor pack-size notation into a ParsedPackSize.
// Patterns are tried in order and the first one that yields a valid pack wins.
type PackSizeParser struct {
	patterns []packPattern
	logger   *zap.Logger
}

// NewPackSizeParser creates a parser with the multiply, can-size, count and simple notations
func NewPackSizeParser(log *zap.Logger) *PackSizeParser {
	return &PackSizeParser{
		logger: logger.OrNop(log),
		patterns: []packPattern{
			// "1/2 gal", "1/4 lb": a half or quarter unit, not a pack of two or four
			{domain.PatternSimple, regexp.MustCompile(`^1\s*/\s*([24])\s*` + packUnit + packTrailing), buildFraction},
			// "12 x 2 lb", "6/10 oz", "4*1 gal"
			{domain.PatternMultiply, regexp.MustCompile(`^(\d+)\s*(?:x|\*|/)\s*` + packNumber + `\s*` + packUnit + packTrailing), buildMultiply},
			// "60 4 oz"
			{domain.PatternMultiply, regexp.MustCompile(`^(\d+)\s+` + packNumber + `\s*` + packUnit + packTrailing), buildMultiply},
			// "6 #10", "6/#10 cans", "#5"
			{domain.PatternCanSize, regexp.MustCompile(`^(?:(\d+)\s*(?:x|\*|/)?\s*)?#\s*` + packNumber + packTrailing), buildCanSize},
			// "24 ct", "1 dz", "2 cases"
			{domain.PatternCount, regexp.MustCompile(`^(\d+)\s*(ct|count|ea|each|pcs|pc|pieces?|dozen|doz|dz|cases?|cs|packs?|pkg|pk)\.?` + packTrailing), buildCount},
			// "10 lb", "1 gal", "50#"
			{domain.PatternSimple, regexp.MustCompile(`^` + packNumber + `\s*` + packUnit + packTrailing), buildSimple},
		},
	}
}

// Parse returns the pack described by text. The second result is false when no
// notation matched; that is a data-quality outcome, not an error.
func (p *PackSizeParser) Parse(text string) (domain.ParsedPackSize, bool) {
	cleaned := cleanPackText(text)
	if cleaned == "" {
		return domain.ParsedPackSize{}, false
	}

	for _, pattern := range p.patterns {
		m := pattern.re.FindStringSubmatch(cleaned)
		if m == nil {
			continue
		}
		if pack, ok := pattern.build(m); ok {
			return pack, true
		}
	}

	p.logger.Warn("unparseable pack size", zap.String("packSize", text))
	return domain.ParsedPackSize{}, false
}

func cleanPackText(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, "×", "x")
	return strings.Join(strings.Fields(s), " ")
}

func buildMultiply(m []string) (domain.ParsedPackSize, bool) {
	count, err := strconv.Atoi(m[1])
	if err != nil {
		return domain.ParsedPackSize{}, false
	}
	return packOf(count, m[2], m[3], domain.PatternMultiply)
}

func buildCanSize(m []string) (domain.ParsedPackSize, bool) {
	count := 1
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return domain.ParsedPackSize{}, false
		}
		count = n
	}
	oz, ok := canSizes[m[2]]
	if !ok {
		return domain.ParsedPackSize{}, false
	}
	pack, err := domain.NewParsedPackSize(count, oz, domain.BaseUnitWeight, domain.PatternCanSize)
	return pack, err == nil
}

func buildCount(m []string) (domain.ParsedPackSize, bool) {
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return domain.ParsedPackSize{}, false
	}
	if factor, ok := countUnitFactors[m[2]]; ok {
		n *= factor
	}
	pack, err := domain.NewParsedPackSize(n, decimal.NewFromInt(1), domain.BaseUnitCount, domain.PatternCount)
	return pack, err == nil
}

func buildFraction(m []string) (domain.ParsedPackSize, bool) {
	denominator, err := decimal.NewFromString(m[1])
	if err != nil {
		return domain.ParsedPackSize{}, false
	}
	return packOf(1, decimal.NewFromInt(1).Div(denominator).String(), m[2], domain.PatternSimple)
}

func buildSimple(m []string) (domain.ParsedPackSize, bool) {
	return packOf(1, m[1], m[2], domain.PatternSimple)
}

func packOf(count int, size, unit string, pattern domain.PatternType) (domain.ParsedPackSize, bool) {
	qty, err := decimal.NewFromString(size)
	if err != nil {
		return domain.ParsedPackSize{}, false
	}
	canonical, ok := CanonicalUnit(unit)
	if !ok {
		return domain.ParsedPackSize{}, false
	}
	pack, err := domain.NewParsedPackSize(count, qty, canonical, pattern)
	return pack, err == nil
}
