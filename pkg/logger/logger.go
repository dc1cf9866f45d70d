package logger

import (
	"go.uber.org/zap"
)

// New builds the process logger. Services get a named child so log lines
// carry the component that emitted them.
func New(service string) (*zap.SugaredLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Sugar().With("service", service), nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
