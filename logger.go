package lrmp

import "github.com/pion/logging"

// newLogger returns a leveled logger for the given scope. A nil factory
// falls back to pion's default factory, which reads PION_LOG_* from the
// environment.
func newLogger(factory logging.LoggerFactory, scope string) logging.LeveledLogger {
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}
	return factory.NewLogger(scope)
}
