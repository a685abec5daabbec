package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/nutrisync/internal/model"
	"github.com/and161185/nutrisync/internal/service"
)

func newRecipeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "recipe", Short: "Manage recipes"}

	var (
		name, notes string
		ingredients []string
		public      bool
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a recipe",
		Example: `  nutrisync recipe add --name "Oat bowl" \
    --ingredient oats:60:389:16.9:66:6.9 --ingredient milk:200:64:3.4:4.8:3.6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			ings := make([]model.RecipeIngredient, 0, len(ingredients))
			for _, arg := range ingredients {
				ing, err := parseIngredient(arg)
				if err != nil {
					return err
				}
				ings = append(ings, ing)
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				r := a.store.AddRecipe(service.RecipeInput{Name: name, Ingredients: ings, Notes: notes, IsPublic: public})
				fmt.Fprintf(cmd.OutOrStdout(), "Added recipe %s (%s)\n", r.Name, r.ID)
				printMacros(cmd.OutOrStdout(), "Total", r.Totals())
				return nil
			})
		},
	}
	f := add.Flags()
	f.StringVar(&name, "name", "", "Recipe name")
	f.StringVar(&notes, "notes", "", "Free-form notes")
	f.BoolVar(&public, "public", false, "Share with the community")
	f.StringArrayVar(&ingredients, "ingredient", nil, "name:grams[:kcal:protein:carbs:fat] per 100 g, or name:NxG for N servings of G grams (repeatable)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				for _, r := range a.store.Recipes() {
					pub := ""
					if r.IsPublic {
						pub = "public"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.0f kcal\t%d ingredients\t%s\n", r.ID, r.Name, r.TotalCalories, len(r.Ingredients), pub)
				}
				return nil
			})
		},
	}

	var meal string
	logRecipe := &cobra.Command{
		Use:   "log <id>",
		Short: "Log a recipe's totals as a meal on the viewing date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			m, err := parseMeal(meal)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				l, ok := a.store.LogRecipe(id, m, "")
				if !ok {
					return fmt.Errorf("recipe %s not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Logged %s (%s, %.0f kcal) on %s\n", l.Name, l.MealType, l.Calories, l.Date)
				return nil
			})
		},
	}
	logRecipe.Flags().StringVar(&meal, "meal", "lunch", "Meal: breakfast, lunch, dinner, snack")

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if !a.store.DeleteRecipe(id) {
					return fmt.Errorf("recipe %s not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted recipe %s\n", id)
				return nil
			})
		},
	}

	var (
		newName, newNotes string
		setPublic         bool
	)
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Rename a recipe or change its notes or visibility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var u service.RecipeUpdate
			if cmd.Flags().Changed("name") {
				u.Name = &newName
			}
			if cmd.Flags().Changed("notes") {
				u.Notes = &newNotes
			}
			if cmd.Flags().Changed("public") {
				u.IsPublic = &setPublic
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				if !a.store.UpdateRecipe(id, u) {
					return fmt.Errorf("recipe %s not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated recipe %s\n", id)
				return nil
			})
		},
	}
	ef := edit.Flags()
	ef.StringVar(&newName, "name", "", "New name")
	ef.StringVar(&newNotes, "notes", "", "New notes")
	ef.BoolVar(&setPublic, "public", false, "Share with the community")

	publicCmd := &cobra.Command{
		Use:   "public",
		Short: "List community recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				if a.rec == nil {
					return fmt.Errorf("sync is not configured (set remote.dsn or --dsn)")
				}
				for _, r := range a.rec.FetchPublicRecipes(cmd.Context()) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.0f kcal\t%s\n", r.ID, r.Name, r.TotalCalories, r.UserID)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(add, list, logRecipe, edit, rm, publicCmd)
	return cmd
}
