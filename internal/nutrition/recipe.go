package nutrition

import (
	"math"

	"github.com/and161185/nutrisync/internal/model"
)

// EffectiveMass is the gram (or ml) quantity an ingredient contributes.
// In serving mode Amount counts servings of ServingQuantity grams each.
func EffectiveMass(ing model.RecipeIngredient) float64 {
	if ing.UseServing && ing.ServingQuantity > 0 {
		return ing.Amount * ing.ServingQuantity
	}
	return ing.Amount
}

// IngredientMacros returns the unrounded macros of a single ingredient.
func IngredientMacros(ing model.RecipeIngredient) model.Macros {
	f := EffectiveMass(ing) / 100
	return model.Macros{
		Calories: ing.CaloriesPer100g * f,
		Protein:  ing.ProteinPer100g * f,
		Carbs:    ing.CarbsPer100g * f,
		Fat:      ing.FatPer100g * f,
	}
}

// RecipeTotals sums ingredient macros and rounds each field to the nearest integer.
func RecipeTotals(ings []model.RecipeIngredient) model.Macros {
	var sum model.Macros
	for _, ing := range ings {
		sum = sum.Add(IngredientMacros(ing))
	}
	return model.Macros{
		Calories: math.Round(sum.Calories),
		Protein:  math.Round(sum.Protein),
		Carbs:    math.Round(sum.Carbs),
		Fat:      math.Round(sum.Fat),
	}
}

// ApplyTotals recomputes r's derived totals from its ingredients.
func ApplyTotals(r *model.Recipe) {
	t := RecipeTotals(r.Ingredients)
	r.TotalCalories, r.TotalProtein, r.TotalCarbs, r.TotalFat = t.Calories, t.Protein, t.Carbs, t.Fat
}
