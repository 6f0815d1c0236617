// Package logger builds *slog.Logger instances for the service.
//
// New accepts functional options selecting format, level and output, and
// wraps the resulting handler with LogHandlerDecorator, which appends
// attributes pulled from the context (request id, authenticated user) on every
// record:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "medisage"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor(), auth.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
// Attribute helpers (Error, UserID, PlanName, EventType, ...) keep key names
// consistent across packages. Helpers that receive empty values return an
// empty slog.Attr, which slog drops.
package logger
