package stats

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a user has no stats record yet.
var ErrNotFound = errors.New("stats: not found")

// Querier defines what the service needs from the database layer.
type Querier interface {
	GetUserStats(ctx context.Context, userID uuid.UUID) (UserStats, error)
	UpsertUserStats(ctx context.Context, stats UserStats) error
	// UpsertLeaderboardBest records a user's result for a time mode,
	// keeping the existing entry when it is already better.
	UpsertLeaderboardBest(ctx context.Context, entry LeaderboardEntry) error
	TopLeaderboard(ctx context.Context, timeMode, limit int) ([]LeaderboardEntry, error)
}
