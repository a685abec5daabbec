package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/nutrisync/internal/errs"
	"github.com/and161185/nutrisync/internal/model"
)

// ProfileRepo implements ProfileRepository using PostgreSQL.
type ProfileRepo struct{ db *DB }

// NewProfileRepo constructs a profile repository.
func NewProfileRepo(db *DB) *ProfileRepo { return &ProfileRepo{db: db} }

// UpsertProfile writes the whole record; histories and goals are stored as jsonb.
func (r *ProfileRepo) UpsertProfile(ctx context.Context, p model.RemoteProfile) error {
	goals, err := json.Marshal(p.MacroGoals)
	if err != nil {
		return err
	}
	weight, err := marshalHistory(p.WeightHistory)
	if err != nil {
		return err
	}
	water, err := marshalHistory(p.WaterHistory)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO profiles (id, age, gender, weight, height, activity_level, goal,
  water_goal, display_macro_mode, macro_goals, weight_history, water_history, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
ON CONFLICT (id) DO UPDATE SET
  age=EXCLUDED.age, gender=EXCLUDED.gender, weight=EXCLUDED.weight, height=EXCLUDED.height,
  activity_level=EXCLUDED.activity_level, goal=EXCLUDED.goal, water_goal=EXCLUDED.water_goal,
  display_macro_mode=EXCLUDED.display_macro_mode, macro_goals=EXCLUDED.macro_goals,
  weight_history=EXCLUDED.weight_history, water_history=EXCLUDED.water_history,
  updated_at=now()`
	pr := p.Profile
	_, err = r.db.Pool.Exec(ctx, q,
		p.UserID, pr.Age, string(pr.Gender), pr.Weight, pr.Height, pr.ActivityLevel, string(pr.Goal),
		p.WaterGoal, string(p.DisplayMacroMode), goals, weight, water,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile selects the record for userID.
func (r *ProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*model.RemoteProfile, error) {
	const q = `
SELECT id, age, gender, weight, height, activity_level, goal,
  water_goal, display_macro_mode, macro_goals, weight_history, water_history, updated_at
FROM profiles WHERE id=$1`
	var (
		p                    model.RemoteProfile
		gender, goal, mode   string
		goals, weight, water []byte
	)
	err := r.db.Pool.QueryRow(ctx, q, userID).Scan(
		&p.UserID, &p.Profile.Age, &gender, &p.Profile.Weight, &p.Profile.Height, &p.Profile.ActivityLevel, &goal,
		&p.WaterGoal, &mode, &goals, &weight, &water, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	p.Profile.Gender = model.Gender(gender)
	p.Profile.Goal = model.Goal(goal)
	p.DisplayMacroMode = model.DisplayMacroMode(mode)
	if len(goals) > 0 {
		if err := json.Unmarshal(goals, &p.MacroGoals); err != nil {
			return nil, fmt.Errorf("decode macro_goals: %w", err)
		}
	}
	if p.WeightHistory, err = unmarshalHistory(weight); err != nil {
		return nil, fmt.Errorf("decode weight_history: %w", err)
	}
	if p.WaterHistory, err = unmarshalHistory(water); err != nil {
		return nil, fmt.Errorf("decode water_history: %w", err)
	}
	return &p, nil
}

func marshalHistory(h []model.HistoryEntry) ([]byte, error) {
	if h == nil {
		h = []model.HistoryEntry{}
	}
	return json.Marshal(h)
}

func unmarshalHistory(b []byte) ([]model.HistoryEntry, error) {
	h := []model.HistoryEntry{}
	if len(b) == 0 {
		return h, nil
	}
	err := json.Unmarshal(b, &h)
	return h, err
}
