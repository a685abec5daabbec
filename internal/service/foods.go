package service

import "github.com/and161185/nutrisync/internal/model"

// ToggleFavorite adds the food to favorites, or removes it when already there.
// It reports whether the food is a favorite afterwards.
func (s *Store) ToggleFavorite(f model.FoodItem) bool {
	fav := false
	s.mutate(false, func() bool {
		for i, x := range s.st.FavoriteFoods {
			if x.ID == f.ID {
				s.st.FavoriteFoods = append(s.st.FavoriteFoods[:i:i], s.st.FavoriteFoods[i+1:]...)
				return true
			}
		}
		s.st.FavoriteFoods = append(s.st.FavoriteFoods, f)
		fav = true
		return true
	})
	return fav
}

// IsFavorite reports whether a food id is in favorites.
func (s *Store) IsFavorite(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, x := range s.st.FavoriteFoods {
		if x.ID == id {
			return true
		}
	}
	return false
}

// FavoriteFoods returns favorite foods.
func (s *Store) FavoriteFoods() []model.FoodItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.FoodItem{}, s.st.FavoriteFoods...)
}

// AddRecentFood moves the food to the front of the recent list, capped at 10.
func (s *Store) AddRecentFood(f model.FoodItem) {
	s.mutate(false, func() bool {
		out := make([]model.FoodItem, 0, recentFoodsCap)
		out = append(out, f)
		for _, x := range s.st.RecentFoods {
			if len(out) == recentFoodsCap {
				break
			}
			if x.ID != f.ID {
				out = append(out, x)
			}
		}
		s.st.RecentFoods = out
		return true
	})
}

// RecentFoods returns recent foods, most recent first.
func (s *Store) RecentFoods() []model.FoodItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.FoodItem{}, s.st.RecentFoods...)
}
