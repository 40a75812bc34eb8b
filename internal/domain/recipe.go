package domain

import "github.com/shopspring/decimal"

// CostMethod records how an ingredient cost was derived
type CostMethod string

const (
	CostPerPiece CostMethod = "per_piece"
	CostPerUnit  CostMethod = "per_unit"
)

// RecipeIngredient is one recipe line priced against the pack it is bought in
type RecipeIngredient struct {
	Name      string          `json:"name" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit" binding:"required"`
	PackPrice decimal.Decimal `json:"packPrice"`
	PackSize  string          `json:"packSize" binding:"required"`
}

// Recipe is a named list of ingredients yielding a number of portions
type Recipe struct {
	Name        string             `json:"name" binding:"required"`
	Portions    int                `json:"portions"`
	Ingredients []RecipeIngredient `json:"ingredients" binding:"required,min=1,dive"`
}

// IngredientCost is the costed form of one ingredient. Error is set instead of Cost on failure.
type IngredientCost struct {
	Ingredient RecipeIngredient `json:"ingredient"`
	Cost       decimal.Decimal  `json:"cost"`
	Method     CostMethod       `json:"method,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// RecipeCost totals a recipe. Complete is false when any ingredient could not be costed.
type RecipeCost struct {
	Name           string           `json:"name"`
	Ingredients    []IngredientCost `json:"ingredients"`
	Total          decimal.Decimal  `json:"total"`
	Portions       int              `json:"portions,omitempty"`
	CostPerPortion *decimal.Decimal `json:"costPerPortion,omitempty"`
	Complete       bool             `json:"complete"`
}
