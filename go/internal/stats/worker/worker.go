package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/nkirchner/typerush/go/internal/race"
	"github.com/nkirchner/typerush/go/internal/stats"
)

// Worker consumes race results from NATS and persists them through the
// stats service.
type Worker struct {
	nc      *nats.Conn
	subject string
	service *stats.Service
}

// New creates a results worker on the given subject.
func New(nc *nats.Conn, subject string, service *stats.Service) *Worker {
	if subject == "" {
		subject = stats.DefaultSubject
	}
	return &Worker{nc: nc, subject: subject, service: service}
}

// Run subscribes to the results subject and blocks until the context is
// cancelled.
func (w *Worker) Run(ctx context.Context) error {
	sub, err := w.nc.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", w.subject, err)
	}
	defer sub.Unsubscribe()

	log.Info().Str("subject", w.subject).Msg("stats worker started")
	<-ctx.Done()
	log.Info().Msg("stats worker shutting down")
	return nil
}

func (w *Worker) handleMessage(msg *nats.Msg) {
	var result race.RaceResult
	if err := json.Unmarshal(msg.Data, &result); err != nil {
		log.Warn().Err(err).Msg("discarding malformed race result")
		return
	}

	_, err := w.service.SaveResult(context.Background(), result.UserID, result.Username, stats.TestResult{
		WPM:             result.WPM,
		RawWPM:          result.RawWPM,
		Accuracy:        result.Accuracy,
		CorrectChars:    result.CorrectChars,
		IncorrectChars:  result.IncorrectChars,
		DurationSeconds: result.DurationSeconds,
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("user", result.UserID.String()).
			Msg("failed to persist race result")
		return
	}

	log.Debug().
		Str("user", result.UserID.String()).
		Int("wpm", result.WPM).
		Int("duration", result.DurationSeconds).
		Msg("race result persisted")
}
