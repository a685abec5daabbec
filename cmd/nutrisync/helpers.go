package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/nutrisync/internal/model"
)

func parseMeal(s string) (model.MealType, error) {
	m := model.MealType(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("invalid meal %q (breakfast, lunch, dinner, snack)", s)
	}
	return m, nil
}

func parseFloatArg(name, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	return v, nil
}

// finiteFloat is a float flag value that rejects NaN and infinities.
type finiteFloat float64

func (f *finiteFloat) String() string { return strconv.FormatFloat(float64(*f), 'g', -1, 64) }

func (f *finiteFloat) Set(s string) error {
	v, err := parseFloatArg("number", s)
	if err != nil {
		return err
	}
	*f = finiteFloat(v)
	return nil
}

func (f *finiteFloat) Type() string { return "float" }

func parseDateFlag(date string) (string, error) {
	if date == "" {
		return "", nil
	}
	if _, err := model.ParseDate(date); err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return date, nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseIngredient reads "name:amount[:kcal:protein:carbs:fat]" with macros per 100 g.
// An amount suffixed with "x" counts servings of --serving grams.
func parseIngredient(arg string) (model.RecipeIngredient, error) {
	parts := strings.Split(arg, ":")
	if len(parts) != 2 && len(parts) != 6 {
		return model.RecipeIngredient{}, fmt.Errorf("invalid ingredient %q (name:amount[:kcal:protein:carbs:fat])", arg)
	}
	ing := model.RecipeIngredient{Name: strings.TrimSpace(parts[0]), Unit: "g"}
	if ing.Name == "" {
		return model.RecipeIngredient{}, fmt.Errorf("invalid ingredient %q: empty name", arg)
	}
	amount := strings.TrimSpace(parts[1])
	if qty, servings, ok := strings.Cut(amount, "x"); ok {
		n, err := parseFloatArg("servings", qty)
		if err != nil {
			return model.RecipeIngredient{}, err
		}
		g, err := parseFloatArg("serving grams", servings)
		if err != nil {
			return model.RecipeIngredient{}, err
		}
		ing.Amount, ing.ServingQuantity, ing.UseServing = n, g, true
	} else {
		v, err := parseFloatArg("amount", amount)
		if err != nil {
			return model.RecipeIngredient{}, err
		}
		ing.Amount = v
	}
	if len(parts) == 6 {
		dst := []*float64{&ing.CaloriesPer100g, &ing.ProteinPer100g, &ing.CarbsPer100g, &ing.FatPer100g}
		for i, p := range parts[2:] {
			v, err := parseFloatArg("macro", p)
			if err != nil {
				return model.RecipeIngredient{}, err
			}
			*dst[i] = v
		}
	}
	return ing, nil
}

func printMacros(w io.Writer, label string, m model.Macros) {
	fmt.Fprintf(w, "%-10s %6.0f kcal  P %5.1fg  C %5.1fg  F %5.1fg\n", label, m.Calories, m.Protein, m.Carbs, m.Fat)
}
