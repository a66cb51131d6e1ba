package stats

import (
	"time"

	"github.com/google/uuid"
)

// UserStats is a user's running aggregate across every completed test.
type UserStats struct {
	UserID          uuid.UUID `json:"userId"`
	HighestScore    int       `json:"highestScore"`
	AverageWPM      int       `json:"averageWPM"`
	BestWPM         int       `json:"bestWPM"`
	Accuracy        int       `json:"accuracy"`
	TotalTests      int       `json:"totalTests"`
	TotalTypedWords int       `json:"totalTypedWords"`
	TotalErrors     int       `json:"totalErrors"`
	CurrentStreak   int       `json:"currentStreak"`
	LongestStreak   int       `json:"longestStreak"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TestResult is a single completed typing test, solo or multiplayer.
type TestResult struct {
	WPM             int `json:"wpm"`
	RawWPM          int `json:"rawWpm"`
	Accuracy        int `json:"accuracy"`
	CorrectChars    int `json:"correct"`
	IncorrectChars  int `json:"incorrect"`
	DurationSeconds int `json:"duration"`
}

// LeaderboardEntry is a user's best WPM for one time mode.
type LeaderboardEntry struct {
	Rank       int       `json:"rank,omitempty"`
	UserID     uuid.UUID `json:"userId"`
	Username   string    `json:"username"`
	TimeMode   int       `json:"timeMode"`
	BestWPM    int       `json:"bestWPM"`
	AchievedAt time.Time `json:"achievedAt"`
}

// TimeModes are the leaderboard buckets, matching the race durations.
var TimeModes = []int{15, 30, 60, 120}

func validTimeMode(mode int) bool {
	for _, m := range TimeModes {
		if m == mode {
			return true
		}
	}
	return false
}
