package cloudsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/and161185/nutrisync/internal/model"
	"github.com/and161185/nutrisync/internal/service"
)

var fixedNow = time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)

func newStore(t *testing.T) *service.Store {
	t.Helper()
	st := service.NewStore(nil, nil, zaptest.NewLogger(t), service.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, st.Hydrate(context.Background()))
	return st
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestPushAll_NoSession(t *testing.T) {
	t.Parallel()
	remote := newFakeRemote()
	r := NewReconciler(newStore(t), &fakeSessions{}, remote, remote, remote, zaptest.NewLogger(t))

	require.NoError(t, r.PushAll(context.Background()))
	require.NoError(t, r.PullAll(context.Background()))
	require.Empty(t, remote.callLog())
}

func TestPushAll_RefusesBeforeHydrate(t *testing.T) {
	t.Parallel()
	uid := uuid.Must(uuid.NewV4())
	remote := newFakeRemote()
	st := service.NewStore(nil, nil, nil)

	r := NewReconciler(st, signedIn(uid), remote, remote, remote, nil)
	require.ErrorIs(t, r.PushAll(context.Background()), ErrNotHydrated)
	require.Empty(t, remote.callLog())

	require.NoError(t, st.Hydrate(context.Background()))
	require.NoError(t, r.PushAll(context.Background()))
	require.Len(t, remote.callLog(), 3)
}

func TestPushAll_OrderAndPayload(t *testing.T) {
	t.Parallel()
	uid := uuid.Must(uuid.NewV4())
	remote := newFakeRemote()
	st := newStore(t)
	st.AddLog(service.LogInput{MealType: model.MealLunch, Name: "Soup", Calories: 200})
	st.AddRecipe(service.RecipeInput{Name: "Salad"})
	st.AddWater(500, "")
	st.SetDisplayMacroMode(model.DisplayRemaining)

	r := NewReconciler(st, signedIn(uid), remote, remote, remote, zaptest.NewLogger(t))
	require.NoError(t, r.PushAll(context.Background()))

	require.Equal(t, []string{"UpsertProfile", "UpsertLogs", "UpsertRecipes"}, remote.callLog())
	p := remote.profiles[uid]
	require.Equal(t, service.DefaultMacroGoals, p.MacroGoals)
	require.Equal(t, model.DisplayRemaining, p.DisplayMacroMode)
	require.Equal(t, []model.HistoryEntry{{Date: "2024-01-10", Value: 500}}, p.WaterHistory)
	require.Len(t, remote.logs[uid], 1)
	require.Equal(t, "Salad", remote.recipes[uid][0].Name)
}

func TestPushAll_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()
	uid := uuid.Must(uuid.NewV4())
	remote := newFakeRemote()
	remote.errUpsertLogs = errors.New("timeout")
	log, logs := observed()

	st := newStore(t)
	st.AddLog(service.LogInput{MealType: model.MealSnack, Name: "Nuts", Calories: 180})
	r := NewReconciler(st, signedIn(uid), remote, remote, remote, log)

	err := r.PushAll(context.Background())
	require.Error(t, err)
	require.Equal(t, []string{"UpsertProfile", "UpsertLogs"}, remote.callLog())
	require.Contains(t, remote.profiles, uid, "profile step stays applied")
	require.Equal(t, 1, logs.FilterMessage("push logs").Len())
	require.Len(t, st.Logs(), 1, "local state is untouched")
}

func TestPushAll_EmptyCollectionsStillCalled(t *testing.T) {
	t.Parallel()
	uid := uuid.Must(uuid.NewV4())
	remote := newFakeRemote()
	r := NewReconciler(newStore(t), signedIn(uid), remote, remote, remote, nil)

	require.NoError(t, r.PushAll(context.Background()))
	require.Equal(t, []string{"UpsertProfile", "UpsertLogs", "UpsertRecipes"}, remote.callLog())
}

func TestPullAll_ReplacesWholesale(t *testing.T) {
	t.Parallel()
	uid := uuid.Must(uuid.NewV4())
	remote := newFakeRemote()
	remote.profiles[uid] = model.RemoteProfile{
		UserID:        uid,
		Profile:       model.UserProfile{Age: 41, Gender: model.GenderFemale, Weight: 64, Height: 168, ActivityLevel: 1.375, Goal: model.GoalLose},
		MacroGoals:    model.Macros{Calories: 1600, Protein: 120, Carbs: 160, Fat: 53},
		WaterGoal:     2000,
		WaterHistory:  []model.HistoryEntry{{Date: "2024-01-10", Value: 900}},
		WeightHistory: []model.HistoryEntry{{Date: "2024-01-08", Value: 64}},
	}
	newer := model.DailyLog{ID: uuid.Must(uuid.NewV4()), Name: "B", Date: "2024-01-10", MealType: model.MealLunch, Calories: 300}
	older := model.DailyLog{ID: uuid.Must(uuid.NewV4()), Name: "A", Date: "2024-01-09", MealType: model.MealLunch, Calories: 100}
	remote.logs[uid] = []model.DailyLog{newer, older}
	r1 := model.Recipe{ID: uuid.Must(uuid.NewV4()), Name: "R1", Ingredients: []model.RecipeIngredient{}, TotalCalories: 120}
	remote.recipes[uid] = []model.Recipe{r1}

	st := newStore(t)
	local := st.AddRecipe(service.RecipeInput{Name: "local only"})
	st.AddLog(service.LogInput{MealType: model.MealDinner, Name: "local log", Calories: 999})

	r := NewReconciler(st, signedIn(uid), remote, remote, remote, zaptest.NewLogger(t))
	require.NoError(t, r.PullAll(context.Background()))

	require.Equal(t, []string{"GetProfile", "RecentLogs", "ListRecipes"}, remote.callLog())
	require.Equal(t, 41, st.UserProfile().Age)
	require.Equal(t, 1600.0, st.MacroGoals().Calories)
	require.Equal(t, 2000.0, st.WaterGoal())
	require.Equal(t, 900.0, st.WaterIntake())

	logs := st.Logs()
	require.Len(t, logs, 2)
	require.Equal(t, "A", logs[0].Name, "oldest first locally")
	require.Equal(t, 300.0, st.DailyTotals().Calories)

	_, ok := st.Recipe(local.ID)
	require.False(t, ok, "local-only recipe is dropped")
	require.Len(t, st.Recipes(), 1)
}

func TestPullAll_NoRemoteProfileKeepsLocal(t *testing.T) {
	t.Parallel()
	uid := uuid.Must(uuid.NewV4())
	remote := newFakeRemote()
	st := newStore(t)
	age := 55
	st.SetUserProfile(service.ProfileUpdate{Age: &age})

	r := NewReconciler(st, signedIn(uid), remote, remote, remote, nil)
	require.NoError(t, r.PullAll(context.Background()))

	require.Equal(t, 55, st.UserProfile().Age)
	require.Empty(t, st.Logs())
}

func TestPullAll_AnyFailureAppliesNothing(t *testing.T) {
	t.Parallel()
	cases := map[string]func(*fakeRemote){
		"profile": func(f *fakeRemote) { f.errGetProfile = errors.New("down") },
		"logs":    func(f *fakeRemote) { f.errRecentLogs = errors.New("down") },
		"recipes": func(f *fakeRemote) { f.errListRecipes = errors.New("down") },
	}
	for name, breakIt := range cases {
		t.Run(name, func(t *testing.T) {
			uid := uuid.Must(uuid.NewV4())
			remote := newFakeRemote()
			remote.logs[uid] = []model.DailyLog{{ID: uuid.Must(uuid.NewV4()), Name: "remote"}}
			breakIt(remote)
			log, obs := observed()

			st := newStore(t)
			st.AddLog(service.LogInput{MealType: model.MealLunch, Name: "mine"})
			before := st.Snapshot()

			r := NewReconciler(st, signedIn(uid), remote, remote, remote, log)
			require.Error(t, r.PullAll(context.Background()))
			require.Equal(t, before, st.Snapshot())
			require.Equal(t, 1, obs.FilterLevelExact(zapcore.ErrorLevel).Len())
		})
	}
}

func TestPullAll_Coalesced(t *testing.T) {
	t.Parallel()
	uid := uuid.Must(uuid.NewV4())
	remote := newFakeRemote()
	remote.block = make(chan struct{})
	remote.entered = make(chan struct{}, 1)
	r := NewReconciler(newStore(t), signedIn(uid), remote, remote, remote, nil)

	first := make(chan error, 1)
	go func() { first <- r.PullAll(context.Background()) }()
	<-remote.entered

	require.ErrorIs(t, r.PullAll(context.Background()), ErrPullInFlight)

	close(remote.block)
	require.NoError(t, <-first)
}

func TestFetchPublicRecipes(t *testing.T) {
	t.Parallel()
	remote := newFakeRemote()
	remote.public = []model.PublicRecipe{{Recipe: model.Recipe{Name: "Shared"}}}
	r := NewReconciler(newStore(t), &fakeSessions{}, remote, remote, remote, nil)

	got := r.FetchPublicRecipes(context.Background())
	require.Len(t, got, 1)

	remote.errPublic = errors.New("503")
	got = r.FetchPublicRecipes(context.Background())
	require.NotNil(t, got)
	require.Empty(t, got)
}
