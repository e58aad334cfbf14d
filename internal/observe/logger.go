package observe

import (
	"github.com/rs/zerolog"
)

// Logger writes call events as structured zerolog entries
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a Logger observer
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("component", "rpcclient").Logger()}
}

// OnAttempt logs successful attempts at debug and failed ones at warn
func (l *Logger) OnAttempt(e AttemptEvent) {
	var event *zerolog.Event
	if e.Err == nil {
		event = l.logger.Debug()
	} else {
		event = l.logger.Warn().Err(e.Err).Str("kind", e.Kind.String())
	}

	event = event.
		Str("callId", e.CallID).
		Int("attempt", e.Attempt).
		Int("budget", e.Budget).
		Dur("duration", e.Duration)
	if e.Endpoint != "" {
		event = event.Str("endpoint", e.Endpoint)
	}
	event = withTarget(event, e.Method, e.BatchSize)

	if e.Err == nil {
		event.Msg("request succeeded")
	} else {
		event.Msg("request failed")
	}
}

// OnResult logs exhausted calls at error; successes are already covered by OnAttempt
func (l *Logger) OnResult(e ResultEvent) {
	if e.Err == nil {
		return
	}

	event := l.logger.Error().
		Err(e.Err).
		Str("callId", e.CallID).
		Str("kind", e.Kind.String()).
		Int("attempts", e.Attempts).
		Dur("duration", e.Duration)
	withTarget(event, e.Method, e.BatchSize).
		Msg("request does not seem to be working, check that the RPC endpoints are reachable")
}

func withTarget(event *zerolog.Event, method string, batchSize int) *zerolog.Event {
	if batchSize > 0 {
		return event.Int("requests", batchSize)
	}
	return event.Str("method", method)
}
