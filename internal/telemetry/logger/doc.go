// Package logger provides structured logging for gcportal.
//
// This package wraps log/slog:
//
//   - logger.go: Logger interface, configuration and the default logger
//   - context.go: Context-aware logging with request IDs
//   - redact.go: Sensitive data redaction
//
// Features:
//
//   - JSON and text output formats
//   - Dynamic log level
//   - Automatic masking of credentials, passwords and passcodes
//   - Context propagation for per-request IDs
package logger
