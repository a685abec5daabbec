package service

import (
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/nutrisync/internal/model"
	"github.com/and161185/nutrisync/internal/nutrition"
)

// RecipeInput describes a new recipe. Name and ingredient checks are the caller's job.
type RecipeInput struct {
	Name        string
	Ingredients []model.RecipeIngredient
	Notes       string
	IsPublic    bool
}

// RecipeUpdate is a partial recipe change; nil fields are left as is.
// A non-nil Ingredients replaces the list and recomputes totals.
type RecipeUpdate struct {
	Name        *string
	Ingredients *[]model.RecipeIngredient
	Notes       *string
	IsPublic    *bool
}

// AddRecipe stores a recipe with totals computed from its ingredients.
func (s *Store) AddRecipe(in RecipeInput) model.Recipe {
	var r model.Recipe
	s.mutate(true, func() bool {
		r = model.Recipe{
			ID:          s.newID(),
			Name:        in.Name,
			Ingredients: s.prepareIngredients(in.Ingredients),
			Notes:       in.Notes,
			IsPublic:    in.IsPublic,
			CreatedAt:   s.now().UTC(),
		}
		nutrition.ApplyTotals(&r)
		s.st.Recipes = append(s.st.Recipes, r)
		return true
	})
	return cloneRecipe(r)
}

// prepareIngredients copies ings, assigning ids and the default unit where missing.
func (s *Store) prepareIngredients(ings []model.RecipeIngredient) []model.RecipeIngredient {
	out := make([]model.RecipeIngredient, len(ings))
	copy(out, ings)
	for i := range out {
		if out[i].ID == uuid.Nil {
			out[i].ID = s.newID()
		}
		if out[i].Unit == "" {
			out[i].Unit = "g"
		}
	}
	return out
}

// UpdateRecipe merges u into the recipe with the given id. It reports whether
// the recipe exists.
func (s *Store) UpdateRecipe(id uuid.UUID, u RecipeUpdate) bool {
	found := false
	s.mutate(true, func() bool {
		i := s.recipeIndexLocked(id)
		if i < 0 {
			return false
		}
		found = true
		r := &s.st.Recipes[i]
		if u.Name != nil {
			r.Name = *u.Name
		}
		if u.Notes != nil {
			r.Notes = *u.Notes
		}
		if u.IsPublic != nil {
			r.IsPublic = *u.IsPublic
		}
		if u.Ingredients != nil {
			r.Ingredients = s.prepareIngredients(*u.Ingredients)
			nutrition.ApplyTotals(r)
		}
		return true
	})
	return found
}

// DeleteRecipe removes a recipe. Logs created from it keep their snapshot.
// The remote copy is not deleted, so a later pull brings a pushed recipe back.
func (s *Store) DeleteRecipe(id uuid.UUID) bool {
	found := false
	s.mutate(true, func() bool {
		i := s.recipeIndexLocked(id)
		if i < 0 {
			return false
		}
		found = true
		s.st.Recipes = append(s.st.Recipes[:i:i], s.st.Recipes[i+1:]...)
		return true
	})
	return found
}

// LogRecipe logs the recipe's current totals as an independent entry.
// An empty date means the viewing date.
func (s *Store) LogRecipe(id uuid.UUID, meal model.MealType, date string) (model.DailyLog, bool) {
	var (
		l     model.DailyLog
		found bool
	)
	s.mutate(true, func() bool {
		i := s.recipeIndexLocked(id)
		if i < 0 {
			return false
		}
		found = true
		r := s.st.Recipes[i]
		l = s.appendLogLocked(LogInput{
			MealType: meal,
			Name:     r.Name,
			Calories: r.TotalCalories,
			Protein:  r.TotalProtein,
			Carbs:    r.TotalCarbs,
			Fat:      r.TotalFat,
			Date:     date,
		})
		return true
	})
	return l, found
}

// Recipe returns a recipe by id.
func (s *Store) Recipe(id uuid.UUID) (model.Recipe, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.recipeIndexLocked(id)
	if i < 0 {
		return model.Recipe{}, false
	}
	return cloneRecipe(s.st.Recipes[i]), true
}

// Recipes returns all recipes in insertion order.
func (s *Store) Recipes() []model.Recipe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecipes(s.st.Recipes)
}

func (s *Store) recipeIndexLocked(id uuid.UUID) int {
	for i := range s.st.Recipes {
		if s.st.Recipes[i].ID == id {
			return i
		}
	}
	return -1
}
