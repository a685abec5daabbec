package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/nutrisync/internal/model"
)

const logCols = 10

// LogRepo implements LogRepository using PostgreSQL.
type LogRepo struct{ db *DB }

// NewLogRepo constructs a daily log repository.
func NewLogRepo(db *DB) *LogRepo { return &LogRepo{db: db} }

// UpsertLogs writes logs with multi-row inserts inside one transaction.
// Rows owned by another user are left untouched.
func (r *LogRepo) UpsertLogs(ctx context.Context, userID uuid.UUID, logs []model.DailyLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		for start := 0; start < len(logs); start += batchRows {
			end := min(start+batchRows, len(logs))
			chunk := logs[start:end]
			args := make([]any, 0, len(chunk)*logCols)
			for _, l := range chunk {
				args = append(args, l.ID, userID, l.Name, string(l.MealType),
					l.Calories, l.Protein, l.Carbs, l.Fat, l.Date, l.CreatedAt)
			}
			q := `INSERT INTO daily_logs (id, user_id, name, meal_type, calories, protein, carbs, fat, log_date, created_at) VALUES ` +
				placeholders(len(chunk), logCols) + `
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name, meal_type=EXCLUDED.meal_type, calories=EXCLUDED.calories,
  protein=EXCLUDED.protein, carbs=EXCLUDED.carbs, fat=EXCLUDED.fat, log_date=EXCLUDED.log_date
WHERE daily_logs.user_id=EXCLUDED.user_id`
			if _, err := tx.Exec(ctx, q, args...); err != nil {
				return fmt.Errorf("upsert logs[%d:%d]: %w", start, end, err)
			}
		}
		return nil
	})
}

// RecentLogs returns the newest logs by log date, then by creation time.
// created_at is never changed by an upsert.
func (r *LogRepo) RecentLogs(ctx context.Context, userID uuid.UUID, limit int) ([]model.DailyLog, error) {
	const q = `
SELECT id, name, meal_type, calories, protein, carbs, fat, log_date, created_at
FROM daily_logs
WHERE user_id=$1
ORDER BY log_date DESC, created_at DESC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.DailyLog{}
	for rows.Next() {
		var (
			l    model.DailyLog
			meal string
		)
		if err := rows.Scan(&l.ID, &l.Name, &meal, &l.Calories, &l.Protein, &l.Carbs, &l.Fat, &l.Date, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.MealType = model.MealType(meal)
		out = append(out, l)
	}
	return out, rows.Err()
}
