// Package logger sets up the process-wide JSON slog logger and carries a
// request-scoped logger, tagged with the request trace id, through
// context.Context.
package logger
