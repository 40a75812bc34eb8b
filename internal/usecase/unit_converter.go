package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
	"github.com/kitchenledger/backend/internal/metrics"
)

// costPrecision is the number of decimal places kept on derived costs
const costPrecision = 4

// conversionPrecision is the number of decimal places kept on recipe-to-pack conversions
const conversionPrecision = 6

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Conversion factors to each category's base unit. Weight ranks above volume,
// volume above count, when a unit name could be read more than one way.
var (
	weightFactors = map[string]decimal.Decimal{
		"oz": dec("1"),
		"lb": dec("16"),
		"g":  dec("0.035274"),
		"kg": dec("35.274"),
		"mg": dec("0.000035274"),
	}

	volumeFactors = map[string]decimal.Decimal{
		"fl oz": dec("1"),
		"gal":   dec("128"),
		"qt":    dec("32"),
		"pt":    dec("16"),
		"cup":   dec("8"),
		"tbsp":  dec("0.5"),
		"tsp":   dec("1").DivRound(dec("6"), 16),
		"l":     dec("33.814"),
		"ml":    dec("0.033814"),
	}

	countFactors = map[string]decimal.Decimal{
		"ea": dec("1"),
		"ct": dec("1"),
		"pc": dec("1"),
		"dz": dec("12"),
		"cs": dec("1"),
		"pk": dec("1"),
	}

	unitCategories = []struct {
		category domain.UnitCategory
		base     string
		factors  map[string]decimal.Decimal
	}{
		{domain.UnitCategoryWeight, domain.BaseUnitWeight, weightFactors},
		{domain.UnitCategoryVolume, domain.BaseUnitVolume, volumeFactors},
		{domain.UnitCategoryCount, domain.BaseUnitCount, countFactors},
	}
)

// unitAliases maps spellings seen on invoices and recipes to table keys
var unitAliases = map[string]string{
	"#": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"ounce": "oz", "ounces": "oz",
	"gr": "g", "gram": "g", "grams": "g",
	"kgs": "kg", "kilo": "kg", "kilos": "kg", "kilogram": "kg", "kilograms": "kg",
	"milligram": "mg", "milligrams": "mg",
	"floz": "fl oz", "fl. oz": "fl oz", "fl.oz": "fl oz", "fluid ounce": "fl oz", "fluid ounces": "fl oz",
	"gallon": "gal", "gallons": "gal",
	"quart": "qt", "quarts": "qt",
	"pint": "pt", "pints": "pt",
	"cups": "cup", "c": "cup",
	"tablespoon": "tbsp", "tablespoons": "tbsp", "tbs": "tbsp", "tbl": "tbsp",
	"teaspoon": "tsp", "teaspoons": "tsp",
	"lt": "l", "ltr": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"each": "ea", "pcs": "pc", "piece": "pc", "pieces": "pc",
	"count": "ct", "doz": "dz", "dozen": "dz",
	"case": "cs", "cases": "cs", "pack": "pk", "packs": "pk", "pkg": "pk",
}

// CanonicalUnit lowercases a unit and resolves aliases. Unknown units are returned cleaned but unresolved.
func CanonicalUnit(unit string) (string, bool) {
	u := strings.Join(strings.Fields(strings.ToLower(unit)), " ")
	if u != "#" {
		u = strings.TrimSuffix(u, ".")
	}
	if alias, ok := unitAliases[u]; ok {
		u = alias
	}
	if _, _, ok := lookupUnit(u); ok {
		return u, true
	}
	return u, false
}

// UnitCategoryOf returns the category a unit belongs to
func UnitCategoryOf(unit string) (domain.UnitCategory, bool) {
	u, ok := CanonicalUnit(unit)
	if !ok {
		return "", false
	}
	cat, _, _ := lookupUnit(u)
	return cat, true
}

func lookupUnit(canonical string) (domain.UnitCategory, decimal.Decimal, bool) {
	for _, c := range unitCategories {
		if f, ok := c.factors[canonical]; ok {
			return c.category, f, true
		}
	}
	return "", decimal.Zero, false
}

func baseUnitOf(category domain.UnitCategory) string {
	for _, c := range unitCategories {
		if c.category == category {
			return c.base
		}
	}
	return ""
}

// UnitConverter converts quantities between units and derives unit costs from pack prices.
// All arithmetic uses decimals.
type UnitConverter struct {
	parser *PackSizeParser
	logger *zap.Logger
}

// NewUnitConverter creates a converter
func NewUnitConverter(log *zap.Logger) *UnitConverter {
	log = logger.OrNop(log)
	return &UnitConverter{
		parser: NewPackSizeParser(log),
		logger: log,
	}
}

// ParsePackSize delegates to the pack size parser
func (c *UnitConverter) ParsePackSize(text string) (domain.ParsedPackSize, bool) {
	return c.parser.Parse(text)
}

// ConvertToBaseUnits converts qty of unit to its category's base unit.
// Unknown units pass through unchanged.
func (c *UnitConverter) ConvertToBaseUnits(qty decimal.Decimal, unit string) (decimal.Decimal, string) {
	u, ok := CanonicalUnit(unit)
	if !ok {
		c.logger.Warn("unknown unit, quantity left unconverted", zap.String("unit", unit))
		return qty, unit
	}
	cat, factor, _ := lookupUnit(u)
	return qty.Mul(factor), baseUnitOf(cat)
}

// ConvertFromBaseUnits converts a base-unit quantity into unit
func (c *UnitConverter) ConvertFromBaseUnits(qty decimal.Decimal, unit string) (decimal.Decimal, error) {
	u, ok := CanonicalUnit(unit)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrUnknownUnit, unit)
	}
	_, factor, _ := lookupUnit(u)
	return qty.Div(factor), nil
}

// CalculateTotalQuantity returns the base-unit quantity in unitCount packs of packSize
func (c *UnitConverter) CalculateTotalQuantity(packSize string, unitCount int) (decimal.Decimal, string, error) {
	if unitCount < 1 {
		return decimal.Zero, "", fmt.Errorf("%w: unit count must be at least 1, got %d", domain.ErrInvalidRequest, unitCount)
	}
	pack, ok := c.parser.Parse(packSize)
	if !ok {
		return decimal.Zero, "", fmt.Errorf("%w: %q", domain.ErrUnparseablePackSize, packSize)
	}
	total, base := c.packTotal(pack)
	return total.Mul(decimal.NewFromInt(int64(unitCount))), base, nil
}

// packTotal is count x size converted to base units
func (c *UnitConverter) packTotal(pack domain.ParsedPackSize) (decimal.Decimal, string) {
	qty := decimal.NewFromInt(int64(pack.Count)).Mul(pack.Size)
	return c.ConvertToBaseUnits(qty, pack.Unit)
}

// CalculateUnitCostFromPack derives the cost per base unit, and per piece where the
// pack is made of pieces, from the price of one pack. Costs are rounded to four places.
func (c *UnitConverter) CalculateUnitCostFromPack(packPrice decimal.Decimal, packSize string) (domain.UnitCost, error) {
	cost, err := c.unitCostFromPack(packPrice, packSize)
	if err != nil {
		metrics.UnitCostFailures.WithLabelValues(unitCostFailureReason(err)).Inc()
		c.logger.Debug("unit cost unavailable",
			zap.String("packSize", packSize),
			zap.String("packPrice", packPrice.String()),
			zap.Error(err),
		)
	}
	return cost, err
}

func (c *UnitConverter) unitCostFromPack(packPrice decimal.Decimal, packSize string) (domain.UnitCost, error) {
	if strings.TrimSpace(packSize) == "" {
		return domain.UnitCost{}, domain.ErrMissingPackSize
	}
	if !packPrice.IsPositive() {
		return domain.UnitCost{}, fmt.Errorf("%w: got %s", domain.ErrInvalidPrice, packPrice)
	}

	pack, ok := c.parser.Parse(packSize)
	if !ok {
		return domain.UnitCost{}, fmt.Errorf("%w: %q", domain.ErrUnparseablePackSize, packSize)
	}

	total, base := c.packTotal(pack)
	if !total.IsPositive() {
		return domain.UnitCost{}, fmt.Errorf("%w: %q has no quantity", domain.ErrUnparseablePackSize, packSize)
	}

	cost := domain.UnitCost{
		CostPerUnit: packPrice.DivRound(total, costPrecision),
		BaseUnit:    base,
		Pack:        pack,
	}
	if pack.HasPieces() {
		perPiece := packPrice.DivRound(decimal.NewFromInt(int64(pack.Count)), costPrecision)
		cost.CostPerPiece = &perPiece
	}
	return cost, nil
}

// ValidateUnitCompatibility reports whether two units share a category.
// The error names both categories when they differ.
func (c *UnitConverter) ValidateUnitCompatibility(unit1, unit2 string) (bool, error) {
	cat1, ok := UnitCategoryOf(unit1)
	if !ok {
		return false, fmt.Errorf("%w: %q", domain.ErrUnknownUnit, unit1)
	}
	cat2, ok := UnitCategoryOf(unit2)
	if !ok {
		return false, fmt.Errorf("%w: %q", domain.ErrUnknownUnit, unit2)
	}
	if cat1 != cat2 {
		return false, fmt.Errorf("%w: cannot convert %s (%s) to %s (%s)", domain.ErrIncompatibleUnits, unit1, cat1, unit2, cat2)
	}
	return true, nil
}

// ConvertRecipeToPackUnit converts a recipe quantity into the unit a pack is priced in
func (c *UnitConverter) ConvertRecipeToPackUnit(qty decimal.Decimal, recipeUnit, packUnit string) (decimal.Decimal, error) {
	if _, err := c.ValidateUnitCompatibility(recipeUnit, packUnit); err != nil {
		return decimal.Zero, err
	}
	base, _ := c.ConvertToBaseUnits(qty, recipeUnit)
	out, err := c.ConvertFromBaseUnits(base, packUnit)
	if err != nil {
		return decimal.Zero, err
	}
	return out.Round(conversionPrecision), nil
}

func unitCostFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingPackSize):
		return "missing_pack_size"
	case errors.Is(err, domain.ErrInvalidPrice):
		return "invalid_price"
	default:
		return "unparseable_pack_size"
	}
}
