// Package logger provides structured logging for busstate on top of
// log/slog.
//
// Every logger created by New shares one level, so SetLevel takes effect
// on a running process (serve applies log.level on config reload).
//
// Correlation ids travel in the context rather than in log arguments:
//
//	ctx = logger.WithSagaID(ctx, id)
//	logger.L(ctx).Debug("saga saved", "version", v)
//
// writes a record carrying saga_id. Request ids (metrics server) and soak
// run ids work the same way.
//
// Attribute values are redacted on output: passwords in endpoint URIs are
// masked, values under sensitive keys are replaced, and byte slices such
// as saga state are logged by size only.
package logger
