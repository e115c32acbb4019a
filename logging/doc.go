// Package logging provides the minimal Logger interface used across the
// assistant together with adapters for log/slog and zerolog.
//
// The interface defines the structured logging methods (Debug, Info, Warn,
// Error) taking a message followed by alternating key/value pairs. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZerologAdapter wrapping github.com/rs/zerolog
//   - Redactor masking tokens, API keys and passwords before they hit a sink
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger, err := logging.New(logging.Config{Backend: "zerolog", Level: "info", Redaction: true})
//	tgLogger := logging.Component(logger, "telegram")
package logging
