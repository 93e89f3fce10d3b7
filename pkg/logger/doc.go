// Package logger builds *slog.Logger instances for the service and provides
// attribute helpers so log keys stay consistent across packages.
//
// New selects a JSON or text handler, applies static attributes and wraps the
// handler in a decorator that pulls request-scoped values (request id,
// environment) out of the context on every call:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "authkit"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "account created", logger.AccountID(id))
//
// Discard returns a logger that drops everything. Packages use it as the
// default when the caller supplies no logger.
package logger
