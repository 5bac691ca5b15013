package appointment

import (
	"context"

	"github.com/rs/zerolog"
)

// Effect is a best-effort side effect of a primary write. Its failure never
// changes the outcome of the operation that planned it.
type Effect struct {
	Name string
	Run  func(ctx context.Context) error
}

type EffectRunner interface {
	Run(ctx context.Context, effects []Effect)
}

// LoggingRunner runs effects in order and logs failures without retrying.
type LoggingRunner struct {
	log zerolog.Logger
}

func NewLoggingRunner(log zerolog.Logger) LoggingRunner {
	return LoggingRunner{log: log}
}

func (r LoggingRunner) Run(ctx context.Context, effects []Effect) {
	for _, e := range effects {
		if err := e.Run(ctx); err != nil {
			r.log.Warn().Err(err).Str("effect", e.Name).Msg("best-effort effect failed")
		}
	}
}
