package stats

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Service applies test results to a user's running aggregates and the
// global leaderboard.
type Service struct {
	q Querier
}

// NewService creates a stats service over the given query layer.
func NewService(q Querier) *Service {
	return &Service{q: q}
}

// GetStats returns the user's aggregate, a zeroed record when the user has
// never completed a test.
func (s *Service) GetStats(ctx context.Context, userID uuid.UUID) (UserStats, error) {
	stats, err := s.q.GetUserStats(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return UserStats{UserID: userID}, nil
	}
	if err != nil {
		return UserStats{}, err
	}
	return stats, nil
}

// SaveResult folds a single test result into the user's running aggregates
// and, when the duration is a leaderboard time mode, updates that mode's
// best entry.
func (s *Service) SaveResult(ctx context.Context, userID uuid.UUID, username string, r TestResult) (UserStats, error) {
	stats, err := s.GetStats(ctx, userID)
	if err != nil {
		return UserStats{}, err
	}

	prevWPMTotal := stats.AverageWPM * stats.TotalTests
	prevAccTotal := stats.Accuracy * stats.TotalTests
	stats.TotalTests++
	stats.AverageWPM = roundDiv(prevWPMTotal+r.WPM, stats.TotalTests)
	stats.Accuracy = roundDiv(prevAccTotal+r.Accuracy, stats.TotalTests)

	if r.WPM > stats.BestWPM {
		stats.BestWPM = r.WPM
	}
	if r.WPM > stats.HighestScore {
		stats.HighestScore = r.WPM
	}

	stats.TotalTypedWords += roundDiv(r.CorrectChars+r.IncorrectChars, 5)
	stats.TotalErrors += r.IncorrectChars

	// Streaks bump on accurate tests and reset otherwise.
	if r.Accuracy >= 80 {
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.LongestStreak {
			stats.LongestStreak = stats.CurrentStreak
		}
	} else {
		stats.CurrentStreak = 0
	}

	if err := s.q.UpsertUserStats(ctx, stats); err != nil {
		return UserStats{}, err
	}

	if validTimeMode(r.DurationSeconds) {
		entry := LeaderboardEntry{
			UserID:   userID,
			Username: username,
			TimeMode: r.DurationSeconds,
			BestWPM:  r.WPM,
		}
		if err := s.q.UpsertLeaderboardBest(ctx, entry); err != nil {
			return UserStats{}, err
		}
	}

	return stats, nil
}

// Leaderboard returns the ranked top entries for a time mode. Equal WPM
// shares a rank.
func (s *Service) Leaderboard(ctx context.Context, timeMode, limit int) ([]LeaderboardEntry, error) {
	if !validTimeMode(timeMode) {
		return nil, fmt.Errorf("invalid time mode %d", timeMode)
	}
	if limit <= 0 {
		limit = 100
	}

	entries, err := s.q.TopLeaderboard(ctx, timeMode, limit)
	if err != nil {
		return nil, err
	}

	lastWPM := -1
	lastRank := 0
	for i := range entries {
		if entries[i].BestWPM == lastWPM {
			entries[i].Rank = lastRank
		} else {
			entries[i].Rank = i + 1
			lastRank = i + 1
			lastWPM = entries[i].BestWPM
		}
	}
	return entries, nil
}

func roundDiv(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}
