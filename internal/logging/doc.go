// Package logging provides structured logging utilities for formintake.
//
// Logs are written with the standard library's slog package to stderr, so that
// stdout stays reserved for the human-readable progress lines and the sentinel
// key/value protocol consumed by the calling orchestrator.
//
// # Usage Patterns
//
// Build the process logger once from configuration:
//
//	logger, err := logging.New(os.Stderr, "info", "text")
//
// Tag log lines with consistent attributes:
//
//	logger = logging.WithOperation(logger, "poll")
//	logger.Info("message matched",
//	    logging.MessageID(msg.ID),
//	    logging.Mailbox(mailbox))
//
// # Security Considerations
//
//   - Mailbox addresses are hashed to prevent PII leakage while allowing correlation
//   - Tokens and client secrets are never logged directly
package logging
