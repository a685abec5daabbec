package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/nutrisync/internal/model"
)

const recipeCols = 11

// RecipeRepo implements RecipeRepository using PostgreSQL.
type RecipeRepo struct{ db *DB }

// NewRecipeRepo constructs a recipe repository.
func NewRecipeRepo(db *DB) *RecipeRepo { return &RecipeRepo{db: db} }

// UpsertRecipes writes recipes with multi-row inserts inside one transaction.
// Ingredients are stored as jsonb; empty notes become NULL.
func (r *RecipeRepo) UpsertRecipes(ctx context.Context, userID uuid.UUID, recipes []model.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		for start := 0; start < len(recipes); start += batchRows {
			end := min(start+batchRows, len(recipes))
			chunk := recipes[start:end]
			args := make([]any, 0, len(chunk)*recipeCols)
			for _, rc := range chunk {
				ings := rc.Ingredients
				if ings == nil {
					ings = []model.RecipeIngredient{}
				}
				b, err := json.Marshal(ings)
				if err != nil {
					return err
				}
				args = append(args, rc.ID, userID, rc.Name, b,
					rc.TotalCalories, rc.TotalProtein, rc.TotalCarbs, rc.TotalFat,
					nullString(rc.Notes), rc.IsPublic, rc.CreatedAt)
			}
			q := `INSERT INTO recipes (id, user_id, name, ingredients, total_calories, total_protein, total_carbs, total_fat, notes, is_public, created_at) VALUES ` +
				placeholders(len(chunk), recipeCols) + `
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name, ingredients=EXCLUDED.ingredients,
  total_calories=EXCLUDED.total_calories, total_protein=EXCLUDED.total_protein,
  total_carbs=EXCLUDED.total_carbs, total_fat=EXCLUDED.total_fat,
  notes=EXCLUDED.notes, is_public=EXCLUDED.is_public
WHERE recipes.user_id=EXCLUDED.user_id`
			if _, err := tx.Exec(ctx, q, args...); err != nil {
				return fmt.Errorf("upsert recipes[%d:%d]: %w", start, end, err)
			}
		}
		return nil
	})
}

// ListRecipes returns the user's recipes by creation time.
func (r *RecipeRepo) ListRecipes(ctx context.Context, userID uuid.UUID) ([]model.Recipe, error) {
	const q = `
SELECT id, user_id, name, ingredients, total_calories, total_protein, total_carbs, total_fat, notes, is_public, created_at
FROM recipes
WHERE user_id=$1
ORDER BY created_at ASC`
	pub, err := r.query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Recipe, len(pub))
	for i := range pub {
		out[i] = pub[i].Recipe
	}
	return out, nil
}

// PublicRecipes returns recipes shared by any user, newest first.
func (r *RecipeRepo) PublicRecipes(ctx context.Context, limit int) ([]model.PublicRecipe, error) {
	const q = `
SELECT id, user_id, name, ingredients, total_calories, total_protein, total_carbs, total_fat, notes, is_public, created_at
FROM recipes
WHERE is_public
ORDER BY created_at DESC
LIMIT $1`
	return r.query(ctx, q, limit)
}

func (r *RecipeRepo) query(ctx context.Context, q string, args ...any) ([]model.PublicRecipe, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.PublicRecipe{}
	for rows.Next() {
		var (
			p     model.PublicRecipe
			ings  []byte
			notes *string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &ings,
			&p.TotalCalories, &p.TotalProtein, &p.TotalCarbs, &p.TotalFat,
			&notes, &p.IsPublic, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Ingredients = []model.RecipeIngredient{}
		if len(ings) > 0 {
			if err := json.Unmarshal(ings, &p.Ingredients); err != nil {
				return nil, fmt.Errorf("decode ingredients of %s: %w", p.ID, err)
			}
		}
		if notes != nil {
			p.Notes = *notes
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
