// Package logger provides the structured logging interface used across threadscli.
//
// It wraps zerolog behind a small Logger interface. Console output is written
// to stderr so record output on stdout can be piped; colour is disabled when
// stderr is not a terminal or NO_COLOR is set. An optional log file receives
// the same events.
//
//	log, err := logger.New(&cfg.Logging)
//	log.DebugWithFields("doc ids loaded", map[string]interface{}{
//	    "source": "cache",
//	    "count":  11,
//	})
//
// Tests use NewNopLogger, or NewTestLogger to assert on captured messages.
package logger
