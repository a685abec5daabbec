package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/and161185/nutrisync/internal/model"
	"github.com/and161185/nutrisync/internal/service"
)

func newFoodCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "food", Short: "Look up foods in Open Food Facts"}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search foods by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				items := a.catalog.SearchByText(cmd.Context(), args[0])
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No results")
					return nil
				}
				for _, it := range items {
					printFood(cmd.OutOrStdout(), it, a.store.IsFavorite(it.ID))
				}
				return nil
			})
		},
	}

	var (
		meal  string
		grams float64
	)
	barcode := &cobra.Command{
		Use:   "barcode <code>",
		Short: "Look up a product by barcode, optionally logging a portion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logIt := cmd.Flags().Changed("grams")
			var m model.MealType
			if logIt {
				var err error
				if m, err = parseMeal(meal); err != nil {
					return err
				}
				if grams <= 0 {
					return fmt.Errorf("--grams must be positive")
				}
			}
			return withApp(cmd.Context(), opts, func(a *app) error {
				it, ok := a.catalog.SearchByBarcode(cmd.Context(), args[0])
				if !ok {
					return fmt.Errorf("product %s not found", args[0])
				}
				a.store.AddRecentFood(it)
				printFood(cmd.OutOrStdout(), it, a.store.IsFavorite(it.ID))
				if !logIt {
					return nil
				}
				k := grams / 100
				l := a.store.AddLog(service.LogInput{
					MealType: m,
					Name:     it.Name,
					Calories: it.Calories * k,
					Protein:  it.Protein * k,
					Carbs:    it.Carbs * k,
					Fat:      it.Fat * k,
				})
				fmt.Fprintf(cmd.OutOrStdout(), "Logged %s (%s, %.0f kcal) on %s\n", l.Name, l.MealType, l.Calories, l.Date)
				return nil
			})
		},
	}
	bf := barcode.Flags()
	bf.StringVar(&meal, "meal", "snack", "Meal for --grams: breakfast, lunch, dinner, snack")
	bf.Var((*finiteFloat)(&grams), "grams", "Log this many grams or ml of the product")

	recent := &cobra.Command{
		Use:   "recent",
		Short: "List recently used foods",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				for _, it := range a.store.RecentFoods() {
					printFood(cmd.OutOrStdout(), it, a.store.IsFavorite(it.ID))
				}
				return nil
			})
		},
	}

	fav := &cobra.Command{
		Use:   "fav [id]",
		Short: "List favorites, or toggle a recent food's favorite flag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				if len(args) == 0 {
					for _, it := range a.store.FavoriteFoods() {
						printFood(cmd.OutOrStdout(), it, true)
					}
					return nil
				}
				it, ok := findFood(append(a.store.RecentFoods(), a.store.FavoriteFoods()...), args[0])
				if !ok {
					if it, ok = a.catalog.SearchByBarcode(cmd.Context(), args[0]); !ok {
						return fmt.Errorf("food %s not found", args[0])
					}
				}
				if a.store.ToggleFavorite(it) {
					fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites\n", it.Name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites\n", it.Name)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(search, barcode, recent, fav)
	return cmd
}

func findFood(items []model.FoodItem, id string) (model.FoodItem, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return model.FoodItem{}, false
}

func printFood(w io.Writer, it model.FoodItem, favorite bool) {
	star := ""
	if favorite {
		star = "*"
	}
	name := it.Name
	if it.Brand != "" {
		name += " (" + it.Brand + ")"
	}
	fmt.Fprintf(w, "%s%s\t%s\t%.0f kcal/100%s\tP %.1f\tC %.1f\tF %.1f\n", star, it.ID, name, it.Calories, it.Unit, it.Protein, it.Carbs, it.Fat)
}
