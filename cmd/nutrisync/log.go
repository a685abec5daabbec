package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/nutrisync/internal/model"
	"github.com/and161185/nutrisync/internal/service"
)

func newLogCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Log meals"}

	var (
		meal, name                    string
		calories, protein, carbs, fat float64
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a log entry for the viewing date",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseMeal(meal)
			if err != nil {
				return err
			}
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				l := a.store.AddLog(service.LogInput{
					MealType: m, Name: name,
					Calories: calories, Protein: protein, Carbs: carbs, Fat: fat,
				})
				fmt.Fprintf(cmd.OutOrStdout(), "Logged %s (%s, %.0f kcal) on %s\n", l.Name, l.MealType, l.Calories, l.Date)
				return nil
			})
		},
	}
	f := add.Flags()
	f.StringVar(&meal, "meal", "snack", "Meal: breakfast, lunch, dinner, snack")
	f.StringVar(&name, "name", "", "Food name")
	f.Var((*finiteFloat)(&calories), "kcal", "Calories")
	f.Var((*finiteFloat)(&protein), "protein", "Protein grams")
	f.Var((*finiteFloat)(&carbs), "carbs", "Carbs grams")
	f.Var((*finiteFloat)(&fat), "fat", "Fat grams")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the viewing date's logs by meal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Date: %s\n", a.store.CurrentDate())
				for _, m := range model.MealTypes {
					logs := a.store.LogsByMeal(m)
					if len(logs) == 0 {
						continue
					}
					fmt.Fprintf(out, "%s:\n", m)
					for _, l := range logs {
						fmt.Fprintf(out, "  %s\t%s\t%.0f kcal\tP %.1f\tC %.1f\tF %.1f\n", l.ID, l.Name, l.Calories, l.Protein, l.Carbs, l.Fat)
					}
				}
				return nil
			})
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func newTotalsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Show the viewing date's totals against goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Date: %s\n", a.store.CurrentDate())
				if a.store.DisplayMacroMode() == model.DisplayRemaining {
					printMacros(out, "Remaining", a.store.Remaining())
				} else {
					printMacros(out, "Consumed", a.store.DailyTotals())
				}
				printMacros(out, "Goal", a.store.MacroGoals())
				fmt.Fprintf(out, "Water      %.0f / %.0f ml\n", a.store.WaterFor(a.store.CurrentDate()), a.store.WaterGoal())
				return nil
			})
		},
	}
}
