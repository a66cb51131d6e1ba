package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/nkirchner/typerush/go/internal/race"
)

// DefaultSubject is the NATS subject race results are published on.
const DefaultSubject = "typerush.race.results"

// Publisher forwards race results to NATS for the stats worker. It
// implements race.ResultRecorder; the engine treats delivery as fire and
// forget, so a publish failure only costs the one result.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a result publisher on the given subject.
func NewPublisher(nc *nats.Conn, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{nc: nc, subject: subject}
}

// RecordResult implements race.ResultRecorder.
func (p *Publisher) RecordResult(ctx context.Context, result race.RaceResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal race result: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish race result: %w", err)
	}
	return nil
}
