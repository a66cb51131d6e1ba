package race

import (
	"context"
	"math"

	"github.com/google/uuid"
)

// RaceResult is the final performance summary produced once per identified
// player when a race completes. Anonymous players produce no result.
type RaceResult struct {
	UserID          uuid.UUID `json:"userId"`
	Username        string    `json:"username"`
	WPM             int       `json:"wpm"`
	RawWPM          int       `json:"rawWpm"`
	Accuracy        int       `json:"accuracy"`
	CorrectChars    int       `json:"correctChars"`
	IncorrectChars  int       `json:"incorrectChars"`
	DurationSeconds int       `json:"durationSeconds"`
}

// ResultRecorder receives race results. Delivery is fire and forget: the
// engine neither blocks on nor retries a failed recording.
type ResultRecorder interface {
	RecordResult(ctx context.Context, result RaceResult) error
}

// NopRecorder drops every result. Used when no recorder is configured.
type NopRecorder struct{}

func (NopRecorder) RecordResult(context.Context, RaceResult) error { return nil }

// resultFor derives a player's summary from their reported metrics. Raw WPM
// and character counts are reconstructed from the cursor offset and reported
// accuracy, since the client only streams live figures during the race.
func resultFor(p *Player, durationSeconds int) RaceResult {
	chars := p.CursorIndex
	correct := int(math.Round(float64(chars) * float64(p.Accuracy) / 100))
	elapsedMin := float64(durationSeconds) / 60
	if p.FinishTime != nil && *p.FinishTime > 0 {
		elapsedMin = float64(*p.FinishTime) / 60000
	}
	rawWPM := 0
	if elapsedMin > 0 {
		rawWPM = int(math.Round(float64(chars) / 5 / elapsedMin))
	}
	return RaceResult{
		UserID:          *p.UserID,
		Username:        p.DisplayName,
		WPM:             p.WPM,
		RawWPM:          rawWPM,
		Accuracy:        p.Accuracy,
		CorrectChars:    correct,
		IncorrectChars:  chars - correct,
		DurationSeconds: durationSeconds,
	}
}
