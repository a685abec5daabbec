// Package service contains the domain store: logs, recipes, goals, profile and histories.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/nutrisync/internal/errs"
	"github.com/and161185/nutrisync/internal/model"
	"github.com/and161185/nutrisync/internal/nutrition"
)

// Persister stores state snapshots locally.
type Persister interface {
	// Load returns the stored state or errs.ErrNotFound.
	Load(ctx context.Context) (model.State, error)
	// Save records a snapshot. It must not block on I/O.
	Save(st model.State)
}

// Notifier is told whenever data mirrored to the remote store changed.
type Notifier interface {
	Notify()
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for "today".
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides entity id generation.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *Store) { s.newID = gen }
}

// Defaults for a fresh store.
var (
	DefaultProfile = model.UserProfile{
		Age:           30,
		Gender:        model.GenderMale,
		Weight:        75,
		Height:        175,
		ActivityLevel: 1.55,
		Goal:          model.GoalMaintain,
	}
	DefaultMacroGoals = model.Macros{Calories: 2400, Protein: 150, Carbs: 250, Fat: 80}
)

const (
	// DefaultWaterGoal is the daily water target in ml.
	DefaultWaterGoal = 2500
	recentFoodsCap   = 10
)

// Store is the single in-memory state container. Commands never fail; each one
// applies atomically, hands a snapshot to the Persister and, for mirrored data,
// signals the Notifier.
type Store struct {
	mu          sync.RWMutex
	st          model.State
	currentDate string
	hydrated    bool

	persister Persister
	notifier  Notifier
	log       *zap.Logger
	now       func() time.Time
	newID     func() uuid.UUID
}

// NewStore constructs a Store with default state. persister and notifier may be nil.
func NewStore(p Persister, n Notifier, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		st:        defaultState(),
		persister: p,
		notifier:  n,
		log:       log,
		now:       time.Now,
		newID:     func() uuid.UUID { return uuid.Must(uuid.NewV4()) },
	}
	for _, o := range opts {
		o(s)
	}
	s.currentDate = model.DateOf(s.now())
	return s
}

func defaultState() model.State {
	return model.State{
		UserProfile:      DefaultProfile,
		MacroGoals:       DefaultMacroGoals,
		WaterGoal:        DefaultWaterGoal,
		DisplayMacroMode: model.DisplayConsumed,
		Logs:             []model.DailyLog{},
		Recipes:          []model.Recipe{},
		WeightHistory:    []model.HistoryEntry{},
		WaterHistory:     []model.HistoryEntry{},
		RecentFoods:      []model.FoodItem{},
		FavoriteFoods:    []model.FoodItem{},
	}
}

// Hydrate replaces the in-memory state with the persisted one. A missing blob
// leaves defaults in place. The viewing date is never restored.
func (s *Store) Hydrate(ctx context.Context) error {
	if s.persister == nil {
		s.mu.Lock()
		s.hydrated = true
		s.mu.Unlock()
		return nil
	}
	st, err := s.persister.Load(ctx)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		s.log.Debug("no local state, starting fresh")
		s.mu.Lock()
		s.hydrated = true
		s.mu.Unlock()
		return nil
	case err != nil:
		return err
	}
	s.mu.Lock()
	s.st = normalize(st)
	s.st.WaterIntake, _ = entryValue(s.st.WaterHistory, s.currentDate)
	s.hydrated = true
	s.mu.Unlock()
	s.log.Info("local state loaded", zap.Int("logs", len(st.Logs)), zap.Int("recipes", len(st.Recipes)))
	return nil
}

// Reload re-reads the persisted state after another writer replaced it and
// requests a push. The viewing date is kept. Pending local changes are
// superseded by the stored copy.
func (s *Store) Reload(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	st, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.st = normalize(st)
	s.st.WaterIntake, _ = entryValue(s.st.WaterHistory, s.currentDate)
	s.hydrated = true
	s.mu.Unlock()
	s.log.Info("local state reloaded", zap.Int("logs", len(st.Logs)), zap.Int("recipes", len(st.Recipes)))
	if s.notifier != nil {
		s.notifier.Notify()
	}
	return nil
}

// Hydrated reports whether Hydrate has completed.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// normalize fills nil collections and restores history ordering.
func normalize(st model.State) model.State {
	d := defaultState()
	if st.Logs == nil {
		st.Logs = d.Logs
	}
	if st.Recipes == nil {
		st.Recipes = d.Recipes
	}
	if st.RecentFoods == nil {
		st.RecentFoods = d.RecentFoods
	}
	if st.FavoriteFoods == nil {
		st.FavoriteFoods = d.FavoriteFoods
	}
	st.WeightHistory = sortedHistory(st.WeightHistory)
	st.WaterHistory = sortedHistory(st.WaterHistory)
	if st.DisplayMacroMode == "" {
		st.DisplayMacroMode = d.DisplayMacroMode
	}
	return st
}

// mutate runs fn under the write lock; when fn reports a change the result is
// persisted. Save is called under the lock so snapshots reach the persister in
// mutation order.
func (s *Store) mutate(mirrored bool, fn func() bool) {
	s.mu.Lock()
	changed := fn()
	if changed && s.persister != nil {
		s.persister.Save(cloneState(s.st))
	}
	s.mu.Unlock()
	if changed && mirrored && s.notifier != nil {
		s.notifier.Notify()
	}
}

func (s *Store) today() string { return model.DateOf(s.now()) }

// Snapshot returns a deep copy of the persisted state.
func (s *Store) Snapshot() model.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneState(s.st)
}

// CurrentDate returns the viewing date.
func (s *Store) CurrentDate() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentDate
}

// SetDate shifts the viewing date for daily-scoped reads and writes and
// refreshes the water intake cache for it.
func (s *Store) SetDate(date string) {
	s.mu.Lock()
	s.currentDate = date
	s.st.WaterIntake, _ = entryValue(s.st.WaterHistory, date)
	s.mu.Unlock()
}

// Clear resets everything to defaults, e.g. on sign-out. It does not request a
// push: the next session must not receive the wiped state.
func (s *Store) Clear() {
	s.mutate(false, func() bool {
		s.st = defaultState()
		return true
	})
	s.log.Info("store cleared")
}

// ReplaceFromRemote swaps local collections for pulled ones. Logs and recipes
// are replaced wholesale; the profile record is applied only when present.
func (s *Store) ReplaceFromRemote(snap model.RemoteSnapshot) {
	s.mutate(false, func() bool {
		if p := snap.Profile; p != nil {
			s.st.UserProfile = p.Profile
			if p.MacroGoals.Calories > 0 {
				s.st.MacroGoals = p.MacroGoals
			}
			if p.WaterGoal > 0 {
				s.st.WaterGoal = p.WaterGoal
			}
			if p.DisplayMacroMode != "" {
				s.st.DisplayMacroMode = p.DisplayMacroMode
			}
			s.st.WeightHistory = sortedHistory(p.WeightHistory)
			s.st.WaterHistory = sortedHistory(p.WaterHistory)
			s.st.WaterIntake, _ = entryValue(s.st.WaterHistory, s.currentDate)
		}
		s.st.Logs = append([]model.DailyLog{}, snap.Logs...)
		s.st.Recipes = cloneRecipes(snap.Recipes)
		return true
	})
}

// ---- profile & goals ----

// ProfileUpdate is a partial profile change; nil fields are left as is.
type ProfileUpdate struct {
	Age           *int
	Gender        *model.Gender
	Weight        *float64
	Height        *float64
	ActivityLevel *float64
	Goal          *model.Goal
}

// SetUserProfile merges u into the profile. A weight change also records
// today's weight history entry.
func (s *Store) SetUserProfile(u ProfileUpdate) {
	s.mutate(true, func() bool {
		p := &s.st.UserProfile
		if u.Age != nil {
			p.Age = *u.Age
		}
		if u.Gender != nil {
			p.Gender = *u.Gender
		}
		if u.Height != nil {
			p.Height = *u.Height
		}
		if u.ActivityLevel != nil {
			p.ActivityLevel = *u.ActivityLevel
		}
		if u.Goal != nil {
			p.Goal = *u.Goal
		}
		if u.Weight != nil {
			p.Weight = *u.Weight
			s.st.WeightHistory = upsertEntry(s.st.WeightHistory, s.today(), *u.Weight)
		}
		return true
	})
}

// UserProfile returns the body profile.
func (s *Store) UserProfile() model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.UserProfile
}

// SetMacroGoals replaces the daily goals.
func (s *Store) SetMacroGoals(g model.Macros) {
	s.mutate(true, func() bool {
		s.st.MacroGoals = g
		return true
	})
}

// ApplySuggestedGoals derives goals from the current profile and stores them.
func (s *Store) ApplySuggestedGoals() model.Macros {
	var g model.Macros
	s.mutate(true, func() bool {
		g = nutrition.SuggestGoals(s.st.UserProfile)
		s.st.MacroGoals = g
		return true
	})
	return g
}

// MacroGoals returns the daily goals.
func (s *Store) MacroGoals() model.Macros {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.MacroGoals
}

// SetDisplayMacroMode selects consumed or remaining display.
func (s *Store) SetDisplayMacroMode(m model.DisplayMacroMode) {
	s.mutate(true, func() bool {
		s.st.DisplayMacroMode = m
		return true
	})
}

// DisplayMacroMode returns the dashboard display mode.
func (s *Store) DisplayMacroMode() model.DisplayMacroMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.DisplayMacroMode
}

// ---- logs ----

// LogInput is a new log entry. An empty Date means the viewing date.
type LogInput struct {
	MealType model.MealType
	Name     string
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
	Date     string
}

// AddLog appends a log with a fresh id. Identical entries are allowed.
func (s *Store) AddLog(in LogInput) model.DailyLog {
	var l model.DailyLog
	s.mutate(true, func() bool {
		l = s.appendLogLocked(in)
		return true
	})
	return l
}

func (s *Store) appendLogLocked(in LogInput) model.DailyLog {
	date := in.Date
	if date == "" {
		date = s.currentDate
	}
	l := model.DailyLog{
		ID:       s.newID(),
		MealType: in.MealType,
		Name:     in.Name,
		Calories: in.Calories,
		Protein:  in.Protein,
		Carbs:    in.Carbs,
		Fat:      in.Fat,
		Date:     date,

		CreatedAt: s.now().UTC(),
	}
	s.st.Logs = append(s.st.Logs, l)
	return l
}

// Logs returns every log in insertion order.
func (s *Store) Logs() []model.DailyLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.DailyLog{}, s.st.Logs...)
}

// DailyTotals sums the macros of logs on the viewing date.
func (s *Store) DailyTotals() model.Macros {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalsLocked(s.currentDate)
}

func (s *Store) totalsLocked(date string) model.Macros {
	var t model.Macros
	for _, l := range s.st.Logs {
		if l.Date == date {
			t = t.Add(l.Macros())
		}
	}
	return t
}

// Remaining returns goals minus the viewing date's totals. Values may be negative.
func (s *Store) Remaining() model.Macros {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.MacroGoals.Sub(s.totalsLocked(s.currentDate))
}

// LogsByMeal returns the viewing date's logs for one meal.
func (s *Store) LogsByMeal(meal model.MealType) []model.DailyLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.DailyLog{}
	for _, l := range s.st.Logs {
		if l.Date == s.currentDate && l.MealType == meal {
			out = append(out, l)
		}
	}
	return out
}
