// Package log is the logging abstraction used across rdstream.
//
// Components accept a Logger and never import a concrete logging library.
// Two implementations ship with the package: a zerolog adapter for real
// output and a no-op logger for tests and embedders that do not care.
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//	logger.Info("connected", log.String("addr", addr))
//
// Session-scoped loggers are derived with With:
//
//	slog := logger.With(log.String("session_id", id))
package log
