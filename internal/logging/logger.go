// Package logging provides the per-component sugared loggers used across
// the bridge. Each constructor mirrors the teacher's pattern of minting one
// prefixed logger per service (log.New(os.Stdout, "COMPONENT: ", ...)) but
// backs it with zap so Debugf/Warnf/Errorf are real methods instead of being
// called on a bare *log.Logger.
package logging

import (
	"go.uber.org/zap"
)

// New builds a component-scoped sugared logger, e.g. New("VINSTORE").
func New(component string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	base, err := cfg.Build()
	if err != nil {
		base = zap.NewNop()
	}
	return base.Sugar().Named(component)
}

// Nop returns a logger that discards everything, for tests that don't want
// log noise on stdout.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
