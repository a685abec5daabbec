package service

import "github.com/and161185/nutrisync/internal/model"

func cloneState(st model.State) model.State {
	out := st
	out.Logs = append([]model.DailyLog{}, st.Logs...)
	out.Recipes = cloneRecipes(st.Recipes)
	out.WeightHistory = append([]model.HistoryEntry{}, st.WeightHistory...)
	out.WaterHistory = append([]model.HistoryEntry{}, st.WaterHistory...)
	out.RecentFoods = append([]model.FoodItem{}, st.RecentFoods...)
	out.FavoriteFoods = append([]model.FoodItem{}, st.FavoriteFoods...)
	return out
}

func cloneRecipe(r model.Recipe) model.Recipe {
	r.Ingredients = append([]model.RecipeIngredient{}, r.Ingredients...)
	return r
}

func cloneRecipes(rs []model.Recipe) []model.Recipe {
	out := make([]model.Recipe, len(rs))
	for i, r := range rs {
		out[i] = cloneRecipe(r)
	}
	return out
}
