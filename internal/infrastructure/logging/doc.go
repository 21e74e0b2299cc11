// Package logging provides structured logging for the sinus publisher.
//
// It wraps Go's standard log/slog package:
//
//   - Text output by default, JSON when logging.format is "json"
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("published sample", "topic", topic, "payload", payload)
//	logger.Error("failed to connect", "error", err)
package logging
