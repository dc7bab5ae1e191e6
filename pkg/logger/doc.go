// Package logger builds the application's *slog.Logger.
//
// Records are enriched from the request context through ContextExtractor
// functions, so handlers log with InfoContext and get request_id and the
// caller identity for free:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "saasgate"),
//		logger.WithConfig(cfg.Log),
//		logger.WithContextExtractors(api.RequestIDExtractor(), identity.LoggerExtractor()),
//	)
package logger
