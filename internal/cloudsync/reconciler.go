// Package cloudsync mirrors the local store to the remote repositories.
package cloudsync

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/and161185/nutrisync/internal/errs"
	"github.com/and161185/nutrisync/internal/model"
	"github.com/and161185/nutrisync/internal/repository"
	"github.com/and161185/nutrisync/internal/session"
)

const (
	recentLogsLimit    = 500
	publicRecipesLimit = 50
)

var (
	// ErrPullInFlight is returned by PullAll when another pull is running.
	ErrPullInFlight = errors.New("pull already in progress")

	// ErrNotHydrated is returned by PushAll before local state is loaded.
	ErrNotHydrated = errors.New("local state not loaded")
)

// LocalStore is the part of the domain store sync needs.
type LocalStore interface {
	Hydrated() bool
	Snapshot() model.State
	ReplaceFromRemote(model.RemoteSnapshot)
}

// Reconciler pushes local state wholesale and pulls remote state wholesale.
// Failures are logged; the local store is never left half-applied.
type Reconciler struct {
	store    LocalStore
	sessions session.Provider
	profiles repository.ProfileRepository
	logs     repository.LogRepository
	recipes  repository.RecipeRepository
	log      *zap.Logger

	pulling atomic.Bool
}

// NewReconciler constructs a Reconciler.
func NewReconciler(
	store LocalStore,
	sessions session.Provider,
	profiles repository.ProfileRepository,
	logs repository.LogRepository,
	recipes repository.RecipeRepository,
	log *zap.Logger,
) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{store: store, sessions: sessions, profiles: profiles, logs: logs, recipes: recipes, log: log}
}

// PushAll upserts the profile record, then all logs, then all recipes. It
// stops at the first failure; earlier steps stay applied. Without a session
// it does nothing. Before the store is hydrated it returns ErrNotHydrated.
func (r *Reconciler) PushAll(ctx context.Context) error {
	s, ok := r.sessions.Current()
	if !ok {
		r.log.Debug("push skipped: no session")
		return nil
	}
	if !r.store.Hydrated() {
		r.log.Warn("push skipped: local state not loaded")
		return ErrNotHydrated
	}
	st := r.store.Snapshot()
	uid := s.UserID

	prof := model.RemoteProfile{
		UserID:           uid,
		Profile:          st.UserProfile,
		MacroGoals:       st.MacroGoals,
		WaterGoal:        st.WaterGoal,
		DisplayMacroMode: st.DisplayMacroMode,
		WeightHistory:    st.WeightHistory,
		WaterHistory:     st.WaterHistory,
	}
	if err := r.profiles.UpsertProfile(ctx, prof); err != nil {
		r.log.Error("push profile", zap.String("user_id", uid.String()), zap.Error(err))
		return err
	}
	if err := r.logs.UpsertLogs(ctx, uid, st.Logs); err != nil {
		r.log.Error("push logs", zap.String("user_id", uid.String()), zap.Int("count", len(st.Logs)), zap.Error(err))
		return err
	}
	if err := r.recipes.UpsertRecipes(ctx, uid, st.Recipes); err != nil {
		r.log.Error("push recipes", zap.String("user_id", uid.String()), zap.Int("count", len(st.Recipes)), zap.Error(err))
		return err
	}
	r.log.Info("push done",
		zap.String("user_id", uid.String()),
		zap.Int("logs", len(st.Logs)),
		zap.Int("recipes", len(st.Recipes)),
	)
	return nil
}

// PullAll fetches profile, recent logs and recipes and replaces local data
// with them. A missing remote profile keeps the local one. If any fetch
// fails nothing is applied. Concurrent calls are collapsed into one.
func (r *Reconciler) PullAll(ctx context.Context) error {
	s, ok := r.sessions.Current()
	if !ok {
		r.log.Debug("pull skipped: no session")
		return nil
	}
	if !r.pulling.CompareAndSwap(false, true) {
		r.log.Debug("pull skipped: in flight")
		return ErrPullInFlight
	}
	defer r.pulling.Store(false)

	uid := s.UserID
	prof, err := r.profiles.GetProfile(ctx, uid)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		prof = nil
	case err != nil:
		r.log.Error("pull profile", zap.String("user_id", uid.String()), zap.Error(err))
		return err
	}
	logs, err := r.logs.RecentLogs(ctx, uid, recentLogsLimit)
	if err != nil {
		r.log.Error("pull logs", zap.String("user_id", uid.String()), zap.Error(err))
		return err
	}
	recipes, err := r.recipes.ListRecipes(ctx, uid)
	if err != nil {
		r.log.Error("pull recipes", zap.String("user_id", uid.String()), zap.Error(err))
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Newest-first from the repository; keep oldest-first locally.
	logs = slices.Clone(logs)
	slices.Reverse(logs)

	r.store.ReplaceFromRemote(model.RemoteSnapshot{Profile: prof, Logs: logs, Recipes: recipes})
	r.log.Info("pull done",
		zap.String("user_id", uid.String()),
		zap.Bool("profile", prof != nil),
		zap.Int("logs", len(logs)),
		zap.Int("recipes", len(recipes)),
	)
	return nil
}

// FetchPublicRecipes returns the newest shared recipes; failures yield an empty list.
func (r *Reconciler) FetchPublicRecipes(ctx context.Context) []model.PublicRecipe {
	out, err := r.recipes.PublicRecipes(ctx, publicRecipesLimit)
	if err != nil {
		r.log.Error("fetch public recipes", zap.Error(err))
		return []model.PublicRecipe{}
	}
	return out
}
