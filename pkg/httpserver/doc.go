// Package httpserver runs the saasgate HTTP API with graceful shutdown and
// exposes liveness and readiness handlers.
//
// Run blocks until the context is canceled or SIGINT/SIGTERM arrives, then
// drains in-flight requests within Config.ShutdownTimeout. Errors are wrapped
// with ErrStart or ErrShutdown for errors.Is inspection.
//
//	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
package httpserver
