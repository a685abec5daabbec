// Package nutrition implements energy expenditure, goal suggestion and recipe macro math.
package nutrition

import (
	"math"

	"github.com/and161185/nutrisync/internal/model"
)

const (
	loseDelta    = -500 // kcal deficit for "lose"
	gainDelta    = 300  // kcal surplus for "gain"
	calorieFloor = 1200

	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// ActivityLevel is one of the fixed PAL multipliers.
type ActivityLevel struct {
	Label string
	Value float64
}

// ActivityLevels lists the supported multipliers, least to most active.
var ActivityLevels = []ActivityLevel{
	{Label: "Sedentary (little or no exercise)", Value: 1.2},
	{Label: "Lightly active (1-3 days/week)", Value: 1.375},
	{Label: "Moderately active (3-5 days/week)", Value: 1.55},
	{Label: "Very active (6-7 days/week)", Value: 1.725},
	{Label: "Extremely active (physical job or training)", Value: 1.9},
}

// IsActivityLevel reports whether v is one of ActivityLevels.
func IsActivityLevel(v float64) bool {
	for _, l := range ActivityLevels {
		if l.Value == v {
			return true
		}
	}
	return false
}

// CalculateBMR returns the Mifflin-St Jeor basal metabolic rate.
// Every gender other than male takes the female constant.
func CalculateBMR(p model.UserProfile) float64 {
	bmr := 10*p.Weight + 6.25*p.Height - 5*float64(p.Age)
	if p.Gender == model.GenderMale {
		return bmr + 5
	}
	return bmr - 161
}

// CalculateTDEE returns BMR scaled by the activity multiplier, rounded.
func CalculateTDEE(p model.UserProfile) float64 {
	return math.Round(CalculateBMR(p) * p.ActivityLevel)
}

// SuggestGoals derives daily macro goals from the profile. Macro grams are split
// 30/40/30 from the adjusted calories before the calorie floor is applied.
func SuggestGoals(p model.UserProfile) model.Macros {
	calories := CalculateTDEE(p)
	switch p.Goal {
	case model.GoalLose:
		calories += loseDelta
	case model.GoalGain:
		calories += gainDelta
	}
	return model.Macros{
		Calories: math.Max(calorieFloor, calories),
		Protein:  math.Round(calories * 0.3 / kcalPerGramProtein),
		Carbs:    math.Round(calories * 0.4 / kcalPerGramCarbs),
		Fat:      math.Round(calories * 0.3 / kcalPerGramFat),
	}
}
