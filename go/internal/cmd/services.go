package main

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/nkirchner/typerush/go/internal/race"
	"github.com/nkirchner/typerush/go/internal/race/gateway"
	"github.com/nkirchner/typerush/go/internal/stats"
)

type Services struct {
	Engine  *race.Engine
	Gateway *gateway.Handler
	Stats   *stats.API
}

// setupServices wires the dependency chain: connection manager → engine →
// protocol handler, plus the optional stats layer when a database pool is
// available.
func setupServices(texts []string, pool *pgxpool.Pool, nc *nats.Conn) *Services {
	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	var recorder race.ResultRecorder = race.NopRecorder{}
	if nc != nil {
		recorder = stats.NewPublisher(nc, getEnv("RACE_RESULTS_SUBJECT", stats.DefaultSubject))
	}

	engine := race.NewEngine(
		race.NewStore(),
		race.NewRegistry(),
		race.NewTextPool(texts),
		clockwork.NewRealClock(),
		cm,
		recorder,
	)

	services := &Services{
		Engine:  engine,
		Gateway: gateway.NewHandler(cm, engine),
	}

	if pool != nil {
		statsService := stats.NewService(stats.NewQueries(pool))
		services.Stats = stats.NewAPI(statsService)
	} else {
		log.Warn().Msg("no database configured, stats endpoints disabled")
	}

	return services
}
