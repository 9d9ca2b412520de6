// Package service contains the application services that orchestrate the
// domain model over the repository ports.
package service

// Logger is the logging interface used by application services. It is
// satisfied by a thin adapter over zap's SugaredLogger, keeping the
// services free of a concrete logging dependency.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
