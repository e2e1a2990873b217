// Package log provides the leveled logging interface used by the assistant.
//
// Loggers are printf-style and backed by github.com/kataras/golog:
//
//	logger := log.NewLogger(os.Stderr, log.LogLevelDebug)
//	logger.Info("ingested %d chunks from %s", n, url)
//
// A package-level logger is available for code that does not carry its own:
//
//	log.SetLogLevel(log.LogLevelWarn)
//	log.Warn("index directory %s missing, ingesting", dir)
//
// Use NoOpLogger in tests to silence output.
package log
