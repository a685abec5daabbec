package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/and161185/nutrisync/internal/model"
	"github.com/and161185/nutrisync/internal/nutrition"
	"github.com/and161185/nutrisync/internal/service"
)

func newWaterCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "water", Short: "Track water intake"}

	var date string
	add := &cobra.Command{
		Use:   "add <ml>",
		Short: "Add (or with a negative value, remove) water",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ml, err := parseFloatArg("ml", args[0])
			if err != nil {
				return err
			}
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				a.store.AddWater(ml, d)
				if d == "" {
					d = a.store.CurrentDate()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Water on %s: %.0f / %.0f ml\n", d, a.store.WaterFor(d), a.store.WaterGoal())
				return nil
			})
		},
	}
	add.Flags().StringVar(&date, "on", "", "Date YYYY-MM-DD (default viewing date)")

	history := &cobra.Command{
		Use:   "history",
		Short: "Show water history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				for _, e := range a.store.WaterHistory() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.0f ml\n", e.Date, e.Value)
				}
				return nil
			})
		},
	}
	cmd.AddCommand(add, history)
	return cmd
}

func newWeightCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "weight", Short: "Track body weight"}

	var date string
	add := &cobra.Command{
		Use:   "add <kg>",
		Short: "Record weight for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kg, err := parseFloatArg("kg", args[0])
			if err != nil {
				return err
			}
			if kg <= 0 {
				return fmt.Errorf("weight must be positive")
			}
			d, err := parseDateFlag(date)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				a.store.AddWeight(kg, d)
				fmt.Fprintf(cmd.OutOrStdout(), "Weight recorded: %.1f kg (profile %.1f kg)\n", kg, a.store.UserProfile().Weight)
				return nil
			})
		},
	}
	add.Flags().StringVar(&date, "on", "", "Date YYYY-MM-DD (default today)")

	history := &cobra.Command{
		Use:   "history",
		Short: "Show weight history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				for _, e := range a.store.WeightHistory() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.1f kg\n", e.Date, e.Value)
				}
				return nil
			})
		},
	}
	cmd.AddCommand(add, history)
	return cmd
}

func newGoalsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Show daily goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				printMacros(cmd.OutOrStdout(), "Goal", a.store.MacroGoals())
				fmt.Fprintf(cmd.OutOrStdout(), "Water      %.0f ml\n", a.store.WaterGoal())
				return nil
			})
		},
	}

	suggest := &cobra.Command{
		Use:   "suggest",
		Short: "Replace macro goals with ones computed from the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				p := a.store.UserProfile()
				g := a.store.ApplySuggestedGoals()
				fmt.Fprintf(cmd.OutOrStdout(), "BMR %.0f kcal, TDEE %.0f kcal\n", nutrition.CalculateBMR(p), nutrition.CalculateTDEE(p))
				printMacros(cmd.OutOrStdout(), "Goal", g)
				return nil
			})
		},
	}

	var calories, protein, carbs, fat, water float64
	set := &cobra.Command{
		Use:   "set",
		Short: "Set macro or water goals; unset flags keep their value",
		RunE: func(cmd *cobra.Command, args []string) error {
			fl := cmd.Flags()
			return withApp(cmd.Context(), opts, func(a *app) error {
				g := a.store.MacroGoals()
				changed := false
				field := func(name string, v float64, dst *float64) {
					if fl.Changed(name) {
						*dst = v
						changed = true
					}
				}
				field("kcal", calories, &g.Calories)
				field("protein", protein, &g.Protein)
				field("carbs", carbs, &g.Carbs)
				field("fat", fat, &g.Fat)
				if changed {
					a.store.SetMacroGoals(g)
				}
				if fl.Changed("water") {
					a.store.SetWaterGoal(water)
				}
				printMacros(cmd.OutOrStdout(), "Goal", a.store.MacroGoals())
				fmt.Fprintf(cmd.OutOrStdout(), "Water      %.0f ml\n", a.store.WaterGoal())
				return nil
			})
		},
	}
	f := set.Flags()
	f.Var((*finiteFloat)(&calories), "kcal", "Calories")
	f.Var((*finiteFloat)(&protein), "protein", "Protein grams")
	f.Var((*finiteFloat)(&carbs), "carbs", "Carbs grams")
	f.Var((*finiteFloat)(&fat), "fat", "Fat grams")
	f.Var((*finiteFloat)(&water), "water", "Water ml")

	cmd.AddCommand(suggest, set)
	return cmd
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the body profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				p := a.store.UserProfile()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Age       %d\n", p.Age)
				fmt.Fprintf(out, "Gender    %s\n", p.Gender)
				fmt.Fprintf(out, "Weight    %.1f kg\n", p.Weight)
				fmt.Fprintf(out, "Height    %.0f cm\n", p.Height)
				fmt.Fprintf(out, "Activity  %g\n", p.ActivityLevel)
				fmt.Fprintf(out, "Goal      %s\n", p.Goal)
				fmt.Fprintf(out, "Display   %s\n", a.store.DisplayMacroMode())
				return nil
			})
		},
	}

	var (
		age                      int
		gender, goal, display    string
		weight, height, activity float64
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields; unset flags keep their value",
		RunE: func(cmd *cobra.Command, args []string) error {
			fl := cmd.Flags()
			var u service.ProfileUpdate
			if fl.Changed("age") {
				if age <= 0 {
					return fmt.Errorf("age must be positive")
				}
				u.Age = &age
			}
			if fl.Changed("gender") {
				g := model.Gender(strings.ToLower(gender))
				if g != model.GenderMale && g != model.GenderFemale && g != model.GenderOther {
					return fmt.Errorf("invalid gender %q (male, female, other)", gender)
				}
				u.Gender = &g
			}
			if fl.Changed("weight") {
				if weight <= 0 {
					return fmt.Errorf("weight must be positive")
				}
				u.Weight = &weight
			}
			if fl.Changed("height") {
				if height <= 0 {
					return fmt.Errorf("height must be positive")
				}
				u.Height = &height
			}
			if fl.Changed("activity") {
				if !nutrition.IsActivityLevel(activity) {
					return fmt.Errorf("invalid activity %g (%s)", activity, activityChoices())
				}
				u.ActivityLevel = &activity
			}
			if fl.Changed("goal") {
				g := model.Goal(strings.ToLower(goal))
				if g != model.GoalLose && g != model.GoalMaintain && g != model.GoalGain {
					return fmt.Errorf("invalid goal %q (lose, maintain, gain)", goal)
				}
				u.Goal = &g
			}
			var mode model.DisplayMacroMode
			if fl.Changed("display") {
				mode = model.DisplayMacroMode(strings.ToLower(display))
				if mode != model.DisplayConsumed && mode != model.DisplayRemaining {
					return fmt.Errorf("invalid display %q (consumed, remaining)", display)
				}
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				a.store.SetUserProfile(u)
				if mode != "" {
					a.store.SetDisplayMacroMode(mode)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Profile updated")
				return nil
			})
		},
	}
	f := set.Flags()
	f.IntVar(&age, "age", 0, "Age in years")
	f.StringVar(&gender, "gender", "", "male, female or other")
	f.Var((*finiteFloat)(&weight), "weight", "Weight kg")
	f.Var((*finiteFloat)(&height), "height", "Height cm")
	f.Var((*finiteFloat)(&activity), "activity", "Activity multiplier: "+activityChoices())
	f.StringVar(&goal, "goal", "", "lose, maintain or gain")
	f.StringVar(&display, "display", "", "Show consumed or remaining macros")

	cmd.AddCommand(set)
	return cmd
}

func activityChoices() string {
	parts := make([]string, 0, len(nutrition.ActivityLevels))
	for _, l := range nutrition.ActivityLevels {
		parts = append(parts, fmt.Sprintf("%g", l.Value))
	}
	return strings.Join(parts, ", ")
}
