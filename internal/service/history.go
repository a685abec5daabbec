package service

import (
	"math"
	"sort"

	"github.com/and161185/nutrisync/internal/model"
)

// AddWater adds ml (negative to remove) to the target date's water history,
// flooring at zero. An empty date means the viewing date; only then is the
// water intake cache updated.
func (s *Store) AddWater(ml float64, date string) {
	s.mutate(true, func() bool {
		if date == "" {
			date = s.currentDate
		}
		cur, _ := entryValue(s.st.WaterHistory, date)
		next := math.Max(0, cur+ml)
		s.st.WaterHistory = upsertEntry(s.st.WaterHistory, date, next)
		if date == s.currentDate {
			s.st.WaterIntake = next
		}
		return true
	})
}

// WaterIntake returns the cached total for the viewing date.
func (s *Store) WaterIntake() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.WaterIntake
}

// WaterFor returns the water history value for a date, 0 when none.
func (s *Store) WaterFor(date string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, _ := entryValue(s.st.WaterHistory, date)
	return v
}

// SetWaterGoal sets the daily water target in ml.
func (s *Store) SetWaterGoal(ml float64) {
	s.mutate(true, func() bool {
		s.st.WaterGoal = ml
		return true
	})
}

// WaterGoal returns the daily water target in ml.
func (s *Store) WaterGoal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.WaterGoal
}

// AddWeight records the weight for a date (default today), replacing any value
// for that date. When the date is the latest in the history the profile weight
// follows.
func (s *Store) AddWeight(kg float64, date string) {
	s.mutate(true, func() bool {
		if date == "" {
			date = s.today()
		}
		s.st.WeightHistory = upsertEntry(s.st.WeightHistory, date, kg)
		if last := s.st.WeightHistory[len(s.st.WeightHistory)-1]; last.Date == date {
			s.st.UserProfile.Weight = kg
		}
		return true
	})
}

// WeightHistory returns weight entries ordered by date.
func (s *Store) WeightHistory() []model.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.HistoryEntry{}, s.st.WeightHistory...)
}

// WaterHistory returns water entries ordered by date.
func (s *Store) WaterHistory() []model.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.HistoryEntry{}, s.st.WaterHistory...)
}

// upsertEntry sets the value for date, keeping entries sorted and unique by date.
func upsertEntry(h []model.HistoryEntry, date string, v float64) []model.HistoryEntry {
	i := sort.Search(len(h), func(i int) bool { return h[i].Date >= date })
	if i < len(h) && h[i].Date == date {
		h[i].Value = v
		return h
	}
	h = append(h, model.HistoryEntry{})
	copy(h[i+1:], h[i:])
	h[i] = model.HistoryEntry{Date: date, Value: v}
	return h
}

func entryValue(h []model.HistoryEntry, date string) (float64, bool) {
	i := sort.Search(len(h), func(i int) bool { return h[i].Date >= date })
	if i < len(h) && h[i].Date == date {
		return h[i].Value, true
	}
	return 0, false
}

// sortedHistory returns a sorted copy of h; on duplicate dates the later entry wins.
func sortedHistory(h []model.HistoryEntry) []model.HistoryEntry {
	out := make([]model.HistoryEntry, 0, len(h))
	for _, e := range h {
		out = upsertEntry(out, e.Date, e.Value)
	}
	return out
}
