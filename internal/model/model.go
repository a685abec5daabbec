// Package model defines domain entities shared by the store, storage and sync layers.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// DateLayout is the calendar-date format used for every date-scoped entity.
const DateLayout = "2006-01-02"

// DateOf formats t as a calendar date in t's location.
func DateOf(t time.Time) string { return t.Format(DateLayout) }

// ParseDate validates an ISO calendar date.
func ParseDate(s string) (time.Time, error) { return time.Parse(DateLayout, s) }

// Gender drives the constant term of the BMR formula.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Goal is the weight goal that shifts suggested calories.
type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

// MealType groups daily logs.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealTypes lists meal types in display order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

// Valid reports whether m is one of the known meal types.
func (m MealType) Valid() bool {
	for _, v := range MealTypes {
		if v == m {
			return true
		}
	}
	return false
}

// DisplayMacroMode selects whether dashboards show consumed or remaining macros.
type DisplayMacroMode string

const (
	DisplayConsumed  DisplayMacroMode = "consumed"
	DisplayRemaining DisplayMacroMode = "remaining"
)

// UserProfile is the body profile used for energy expenditure math.
type UserProfile struct {
	Age           int     `json:"age"`
	Gender        Gender  `json:"gender"`
	Weight        float64 `json:"weight"`        // kg
	Height        float64 `json:"height"`        // cm
	ActivityLevel float64 `json:"activityLevel"` // PAL multiplier, 1.2..1.9
	Goal          Goal    `json:"goal"`
}

// Macros holds calories (kcal) and protein/carbs/fat (g). Used for goals and totals.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Add returns the field-wise sum.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// Sub returns the field-wise difference.
func (m Macros) Sub(o Macros) Macros {
	return Macros{
		Calories: m.Calories - o.Calories,
		Protein:  m.Protein - o.Protein,
		Carbs:    m.Carbs - o.Carbs,
		Fat:      m.Fat - o.Fat,
	}
}

// DailyLog is a single logged meal item. Never updated in place.
type DailyLog struct {
	ID       uuid.UUID `json:"id"`
	MealType MealType  `json:"meal_type"`
	Name     string    `json:"name"`
	Calories float64   `json:"calories"`
	Protein  float64   `json:"protein"`
	Carbs    float64   `json:"carbs"`
	Fat      float64   `json:"fat"`
	Date     string    `json:"date"` // YYYY-MM-DD

	// CreatedAt orders logs within a date; zero for logs written before it existed.
	CreatedAt time.Time `json:"created_at"`
}

// Macros returns the log's macro values.
func (l DailyLog) Macros() Macros {
	return Macros{Calories: l.Calories, Protein: l.Protein, Carbs: l.Carbs, Fat: l.Fat}
}

// RecipeIngredient is one line of a recipe with per-100-unit macros.
type RecipeIngredient struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Amount          float64   `json:"amount"`
	Unit            string    `json:"unit"`
	CaloriesPer100g float64   `json:"caloriesPer100g"`
	ProteinPer100g  float64   `json:"proteinPer100g"`
	CarbsPer100g    float64   `json:"carbsPer100g"`
	FatPer100g      float64   `json:"fatPer100g"`
	ServingSize     string    `json:"servingSize,omitempty"`     // display label, e.g. "1 slice (30 g)"
	ServingQuantity float64   `json:"servingQuantity,omitempty"` // grams per serving, 0 = unknown
	UseServing      bool      `json:"useServing,omitempty"`      // Amount counts servings
}

// Recipe is a named set of ingredients with derived totals.
type Recipe struct {
	ID            uuid.UUID          `json:"id"`
	Name          string             `json:"name"`
	Ingredients   []RecipeIngredient `json:"ingredients"`
	TotalCalories float64            `json:"totalCalories"`
	TotalProtein  float64            `json:"totalProtein"`
	TotalCarbs    float64            `json:"totalCarbs"`
	TotalFat      float64            `json:"totalFat"`
	Notes         string             `json:"notes,omitempty"`
	IsPublic      bool               `json:"is_public"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Totals returns the recipe's derived totals.
func (r Recipe) Totals() Macros {
	return Macros{Calories: r.TotalCalories, Protein: r.TotalProtein, Carbs: r.TotalCarbs, Fat: r.TotalFat}
}

// PublicRecipe is a community recipe together with its author.
type PublicRecipe struct {
	Recipe
	UserID uuid.UUID `json:"user_id"`
}

// HistoryEntry is one per-date value of a weight or water history.
type HistoryEntry struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// FoodItem is a normalized catalog record; macros are per 100 g or ml.
type FoodItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Brand           string  `json:"brand"`
	Calories        float64 `json:"calories"`
	Protein         float64 `json:"protein"`
	Carbs           float64 `json:"carbs"`
	Fat             float64 `json:"fat"`
	Unit            string  `json:"unit"` // "g" or "ml"
	ServingSize     string  `json:"servingSize,omitempty"`
	ServingQuantity float64 `json:"servingQuantity,omitempty"`
}

// State is everything the store persists locally. The viewing date is not part of it.
type State struct {
	UserProfile      UserProfile      `json:"userProfile"`
	MacroGoals       Macros           `json:"macroGoals"`
	WaterGoal        float64          `json:"waterGoal"`
	WaterIntake      float64          `json:"waterIntake"`
	DisplayMacroMode DisplayMacroMode `json:"displayMacroMode"`
	Logs             []DailyLog       `json:"logs"`
	Recipes          []Recipe         `json:"recipes"`
	WeightHistory    []HistoryEntry   `json:"weightHistory"`
	WaterHistory     []HistoryEntry   `json:"waterHistory"`
	RecentFoods      []FoodItem       `json:"recentFoods"`
	FavoriteFoods    []FoodItem       `json:"favoriteFoods"`
}

// RemoteProfile is the single remote record mirroring profile, goals and histories.
type RemoteProfile struct {
	UserID           uuid.UUID
	Profile          UserProfile
	MacroGoals       Macros
	WaterGoal        float64
	DisplayMacroMode DisplayMacroMode
	WeightHistory    []HistoryEntry
	WaterHistory     []HistoryEntry
	UpdatedAt        time.Time
}

// RemoteSnapshot is what a pull fetched. A nil Profile means the user has no remote profile yet.
type RemoteSnapshot struct {
	Profile *RemoteProfile
	Logs    []DailyLog
	Recipes []Recipe
}
