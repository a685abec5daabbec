package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/nutrisync/internal/errs"
	"github.com/and161185/nutrisync/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var profileCols = []string{
	"id", "age", "gender", "weight", "height", "activity_level", "goal",
	"water_goal", "display_macro_mode", "macro_goals", "weight_history", "water_history", "updated_at",
}

func TestProfileRepo_Upsert_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)

	uid := uuid.Must(uuid.NewV4())
	p := model.RemoteProfile{
		UserID:           uid,
		Profile:          model.UserProfile{Age: 30, Gender: model.GenderMale, Weight: 80, Height: 180, ActivityLevel: 1.55, Goal: model.GoalMaintain},
		MacroGoals:       model.Macros{Calories: 2136, Protein: 160, Carbs: 214, Fat: 71},
		WaterGoal:        2500,
		DisplayMacroMode: model.DisplayRemaining,
		WeightHistory:    []model.HistoryEntry{{Date: "2024-01-10", Value: 80}},
	}

	mock.ExpectExec(`INSERT INTO profiles`).
		WithArgs(uid, 30, "male", 80.0, 180.0, 1.55, "maintain", 2500.0, "remaining",
			[]byte(`{"calories":2136,"protein":160,"carbs":214,"fat":71}`),
			[]byte(`[{"date":"2024-01-10","value":80}]`),
			[]byte(`[]`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, r.UpsertProfile(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_Upsert_Error(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)

	mock.ExpectExec(`INSERT INTO profiles`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("conn reset"))

	err := r.UpsertProfile(context.Background(), model.RemoteProfile{UserID: uuid.Must(uuid.NewV4())})
	require.ErrorContains(t, err, "conn reset")
}

func TestProfileRepo_Get_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)

	uid := uuid.Must(uuid.NewV4())
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, age, gender`).
		WithArgs(uid).
		WillReturnRows(pgxmock.NewRows(profileCols).AddRow(
			uid, 41, "female", 64.0, 168.0, 1.375, "lose",
			2000.0, "consumed",
			[]byte(`{"calories":1600,"protein":120,"carbs":160,"fat":53}`),
			[]byte(`[{"date":"2024-01-01","value":65},{"date":"2024-01-08","value":64}]`),
			[]byte(`[{"date":"2024-01-08","value":1500}]`),
			now,
		))

	p, err := r.GetProfile(context.Background(), uid)
	require.NoError(t, err)
	require.Equal(t, uid, p.UserID)
	require.Equal(t, model.GenderFemale, p.Profile.Gender)
	require.Equal(t, model.GoalLose, p.Profile.Goal)
	require.Equal(t, model.DisplayConsumed, p.DisplayMacroMode)
	require.Equal(t, 1600.0, p.MacroGoals.Calories)
	require.Len(t, p.WeightHistory, 2)
	require.Equal(t, 1500.0, p.WaterHistory[0].Value)
	require.Equal(t, now, p.UpdatedAt)
}

func TestProfileRepo_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)

	uid := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`FROM profiles WHERE id=\$1`).
		WithArgs(uid).
		WillReturnError(pgx.ErrNoRows)

	_, err := r.GetProfile(context.Background(), uid)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestProfileRepo_Get_BadHistory(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)

	uid := uuid.Must(uuid.NewV4())
	mock.ExpectQuery(`FROM profiles WHERE id=\$1`).
		WithArgs(uid).
		WillReturnRows(pgxmock.NewRows(profileCols).AddRow(
			uid, 30, "male", 75.0, 175.0, 1.55, "maintain", 2500.0, "consumed",
			[]byte(`{}`), []byte(`{"oops":1}`), []byte(nil), time.Now(),
		))

	_, err := r.GetProfile(context.Background(), uid)
	require.ErrorContains(t, err, "weight_history")
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, "($1,$2)", placeholders(1, 2))
	require.Equal(t, "($1,$2,$3),($4,$5,$6)", placeholders(2, 3))
}
