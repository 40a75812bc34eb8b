package usecase

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kitchenledger/backend/internal/domain"
	"github.com/kitchenledger/backend/internal/logger"
)

// centPrecision is used for recipe totals
const centPrecision = 2

// RecipeCostService prices recipes from the packs their ingredients are bought in
type RecipeCostService struct {
	converter *UnitConverter
	logger    *zap.Logger
}

// NewRecipeCostService creates a recipe cost service
func NewRecipeCostService(converter *UnitConverter, log *zap.Logger) *RecipeCostService {
	return &RecipeCostService{converter: converter, logger: logger.OrNop(log)}
}

// CostIngredient prices one ingredient. Count units on packs of pieces are
// priced per piece, everything else per base unit of the pack.
func (s *RecipeCostService) CostIngredient(in domain.RecipeIngredient) (domain.IngredientCost, error) {
	if !in.Quantity.IsPositive() {
		return domain.IngredientCost{}, fmt.Errorf("%w: quantity for %q must be greater than zero", domain.ErrInvalidRequest, in.Name)
	}
	recipeUnit, known := CanonicalUnit(in.Unit)
	if !known {
		return domain.IngredientCost{}, fmt.Errorf("%w: %q", domain.ErrUnknownUnit, in.Unit)
	}

	unitCost, err := s.converter.CalculateUnitCostFromPack(in.PackPrice, in.PackSize)
	if err != nil {
		return domain.IngredientCost{}, err
	}

	if cat, _ := UnitCategoryOf(recipeUnit); cat == domain.UnitCategoryCount && unitCost.CostPerPiece != nil {
		pieces, _ := s.converter.ConvertToBaseUnits(in.Quantity, recipeUnit)
		return domain.IngredientCost{
			Ingredient: in,
			Cost:       pieces.Mul(*unitCost.CostPerPiece).Round(costPrecision),
			Method:     domain.CostPerPiece,
		}, nil
	}

	qty, err := s.converter.ConvertRecipeToPackUnit(in.Quantity, recipeUnit, unitCost.BaseUnit)
	if err != nil {
		return domain.IngredientCost{}, err
	}
	return domain.IngredientCost{
		Ingredient: in,
		Cost:       qty.Mul(unitCost.CostPerUnit).Round(costPrecision),
		Method:     domain.CostPerUnit,
	}, nil
}

// CostRecipe sums ingredient costs. Ingredients that cannot be costed are
// reported individually and leave the recipe incomplete.
func (s *RecipeCostService) CostRecipe(recipe domain.Recipe) (*domain.RecipeCost, error) {
	if strings.TrimSpace(recipe.Name) == "" {
		return nil, fmt.Errorf("%w: recipe name is required", domain.ErrInvalidRequest)
	}
	if len(recipe.Ingredients) == 0 {
		return nil, fmt.Errorf("%w: recipe has no ingredients", domain.ErrInvalidRequest)
	}
	if recipe.Portions < 0 {
		return nil, fmt.Errorf("%w: portions must not be negative", domain.ErrInvalidRequest)
	}

	result := &domain.RecipeCost{
		Name:        recipe.Name,
		Ingredients: make([]domain.IngredientCost, 0, len(recipe.Ingredients)),
		Portions:    recipe.Portions,
		Complete:    true,
	}
	total := decimal.Zero
	for _, in := range recipe.Ingredients {
		cost, err := s.CostIngredient(in)
		if err != nil {
			s.logger.Debug("ingredient not costed",
				zap.String("recipe", recipe.Name),
				zap.String("ingredient", in.Name),
				zap.Error(err),
			)
			result.Complete = false
			result.Ingredients = append(result.Ingredients, domain.IngredientCost{Ingredient: in, Error: err.Error()})
			continue
		}
		total = total.Add(cost.Cost)
		result.Ingredients = append(result.Ingredients, cost)
	}

	result.Total = total.Round(centPrecision)
	if recipe.Portions > 0 {
		perPortion := total.DivRound(decimal.NewFromInt(int64(recipe.Portions)), centPrecision)
		result.CostPerPortion = &perPortion
	}
	return result, nil
}
