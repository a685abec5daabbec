// Package repository declares the remote persistence collaborators used by sync.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/nutrisync/internal/model"
)

// ProfileRepository stores the per-user profile record with goals and histories.
type ProfileRepository interface {
	// UpsertProfile inserts or replaces the record keyed by p.UserID.
	UpsertProfile(ctx context.Context, p model.RemoteProfile) error

	// GetProfile returns the user's record or errs.ErrNotFound.
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.RemoteProfile, error)
}

// LogRepository stores daily log entries.
type LogRepository interface {
	// UpsertLogs inserts or updates all logs by id in one call.
	UpsertLogs(ctx context.Context, userID uuid.UUID, logs []model.DailyLog) error

	// RecentLogs returns at most limit logs, newest date first.
	RecentLogs(ctx context.Context, userID uuid.UUID, limit int) ([]model.DailyLog, error)
}

// RecipeRepository stores recipes and serves the public catalog.
type RecipeRepository interface {
	// UpsertRecipes inserts or updates all recipes by id in one call.
	UpsertRecipes(ctx context.Context, userID uuid.UUID, recipes []model.Recipe) error

	// ListRecipes returns the user's recipes, oldest first.
	ListRecipes(ctx context.Context, userID uuid.UUID) ([]model.Recipe, error)

	// PublicRecipes returns at most limit public recipes, newest first.
	PublicRecipes(ctx context.Context, limit int) ([]model.PublicRecipe, error)
}
