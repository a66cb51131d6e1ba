package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries is the pgx implementation of Querier.
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries creates the Postgres-backed query layer.
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const getUserStatsSQL = `
SELECT highest_score, average_wpm, best_wpm, accuracy, total_tests,
       total_typed_words, total_errors, current_streak, longest_streak, updated_at
FROM user_stats
WHERE user_id = $1`

func (q *Queries) GetUserStats(ctx context.Context, userID uuid.UUID) (UserStats, error) {
	stats := UserStats{UserID: userID}
	err := q.pool.QueryRow(ctx, getUserStatsSQL, userID).Scan(
		&stats.HighestScore,
		&stats.AverageWPM,
		&stats.BestWPM,
		&stats.Accuracy,
		&stats.TotalTests,
		&stats.TotalTypedWords,
		&stats.TotalErrors,
		&stats.CurrentStreak,
		&stats.LongestStreak,
		&stats.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserStats{}, ErrNotFound
	}
	if err != nil {
		return UserStats{}, fmt.Errorf("get user stats: %w", err)
	}
	return stats, nil
}

const upsertUserStatsSQL = `
INSERT INTO user_stats (
	user_id, highest_score, average_wpm, best_wpm, accuracy, total_tests,
	total_typed_words, total_errors, current_streak, longest_streak, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (user_id) DO UPDATE SET
	highest_score     = EXCLUDED.highest_score,
	average_wpm       = EXCLUDED.average_wpm,
	best_wpm          = EXCLUDED.best_wpm,
	accuracy          = EXCLUDED.accuracy,
	total_tests       = EXCLUDED.total_tests,
	total_typed_words = EXCLUDED.total_typed_words,
	total_errors      = EXCLUDED.total_errors,
	current_streak    = EXCLUDED.current_streak,
	longest_streak    = EXCLUDED.longest_streak,
	updated_at        = now()`

func (q *Queries) UpsertUserStats(ctx context.Context, stats UserStats) error {
	_, err := q.pool.Exec(ctx, upsertUserStatsSQL,
		stats.UserID,
		stats.HighestScore,
		stats.AverageWPM,
		stats.BestWPM,
		stats.Accuracy,
		stats.TotalTests,
		stats.TotalTypedWords,
		stats.TotalErrors,
		stats.CurrentStreak,
		stats.LongestStreak,
	)
	if err != nil {
		return fmt.Errorf("upsert user stats: %w", err)
	}
	return nil
}

const upsertLeaderboardSQL = `
INSERT INTO leaderboard (user_id, username, time_mode, best_wpm, achieved_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (user_id, time_mode) DO UPDATE SET
	username    = EXCLUDED.username,
	best_wpm    = EXCLUDED.best_wpm,
	achieved_at = now()
WHERE leaderboard.best_wpm < EXCLUDED.best_wpm`

func (q *Queries) UpsertLeaderboardBest(ctx context.Context, entry LeaderboardEntry) error {
	_, err := q.pool.Exec(ctx, upsertLeaderboardSQL,
		entry.UserID,
		entry.Username,
		entry.TimeMode,
		entry.BestWPM,
	)
	if err != nil {
		return fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	return nil
}

const topLeaderboardSQL = `
SELECT user_id, username, time_mode, best_wpm, achieved_at
FROM leaderboard
WHERE time_mode = $1
ORDER BY best_wpm DESC, achieved_at ASC
LIMIT $2`

func (q *Queries) TopLeaderboard(ctx context.Context, timeMode, limit int) ([]LeaderboardEntry, error) {
	rows, err := q.pool.Query(ctx, topLeaderboardSQL, timeMode, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.TimeMode, &e.BestWPM, &e.AchievedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return entries, nil
}
