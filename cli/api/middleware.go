package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"

	ds "github.com/oaiiae/contacts-edit/datastores"
	"github.com/oaiiae/contacts-edit/session"
	"github.com/oaiiae/contacts-edit/validate"
)

// ctxlog is a [context.Context] key and acts as a virtual package for operations related to it.
type ctxlog struct{}

func (key ctxlog) from(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	logger, ok := ctx.Value(key).(*slog.Logger)
	if !ok {
		return fallback
	}
	return logger
}

// loggerMiddleware returns a middleware that sets a [slog.Logger] tagged with
// the request, session and contact IDs in the [context.Context], and logs the
// request after it has terminated.
func (key ctxlog) loggerMiddleware(parent *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		logger := parent.With("x-request-id", ctx.Header("X-Request-Id"))
		if sid := ctx.Param("sid"); sid != "" {
			logger = logger.With("session", sid)
		}
		if id := ctx.Param("id"); id != "" {
			logger = logger.With("contact", id)
		}

		start := time.Now()
		next(huma.WithValue(ctx, key, logger.With("op", op.OperationID)))

		logger.LogAttrs(context.Background(), slog.LevelInfo, op.Method+" "+op.Path,
			slog.String("proto", ctx.Version().Proto),
			slog.String("from", ctx.RemoteAddr()),
			slog.String("ua", ctx.Header("User-Agent")),
			slog.Int("status", ctx.Status()),
			slog.Duration("dur", time.Since(start)),
		)
	}
}

// recoverMiddleware returns a middleware that recovers and logs the value from panic.
// Also sets status response to [http.StatusInternalServerError].
func (key ctxlog) recoverMiddleware(fallback *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			v := recover()
			if v != nil {
				key.from(ctx.Context(), fallback).LogAttrs(context.Background(), slog.LevelError,
					"panic occurred", slog.Any("recovered", v))
				ctx.SetStatus(http.StatusInternalServerError)
			}
		}()
		next(ctx)
	}
}

// errorHandler returns a function that logs handler errors with the request
// logger. Rejected contact updates are counted per field in set.
func (key ctxlog) errorHandler(fallback *slog.Logger, set *metrics.Set) func(context.Context, error) {
	return func(ctx context.Context, err error) {
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			set.GetOrCreateCounter(joinQuote("contact_updates_rejected_total{field=", verr.Field, "}")).Inc()
		}
		level, attrs := errorAttrs(err)
		key.from(ctx, fallback).LogAttrs(context.Background(), level, "error occurred", attrs...)
	}
}

// errorAttrs picks the log level of err and the attributes describing it.
// Client mistakes are warnings, backend failures are errors.
func errorAttrs(err error) (slog.Level, []slog.Attr) {
	attrs := []slog.Attr{slog.Any("err", err)}

	var (
		verr      *validate.ValidationError
		nferr     *ds.NotFoundError
		serr      *ds.StorageError
		statusErr huma.StatusError
	)
	switch {
	case errors.As(err, &verr):
		return slog.LevelWarn, append(attrs, slog.String("field", verr.Field), slog.String("value", verr.Value))

	case errors.As(err, &nferr):
		return slog.LevelWarn, append(attrs, slog.Int("id", nferr.ID))

	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrTooManySessions),
		errors.Is(err, ds.ErrInvalidID):
		return slog.LevelWarn, attrs

	case errors.Is(err, context.Canceled):
		return slog.LevelInfo, attrs

	case errors.As(err, &serr):
		return slog.LevelError, append(attrs, slog.String("store_op", serr.Op))

	case errors.As(err, &statusErr):
		level := slog.LevelError
		switch statusErr.GetStatus() / 100 {
		case 4: //nolint: mnd // 4XX HTTP Status Codes
			level = slog.LevelWarn
		case 3: //nolint: mnd // 3XX HTTP Status Codes
			level = slog.LevelInfo
		}
		return level, append(attrs, slog.Int("status", statusErr.GetStatus()))
	}
	return slog.LevelError, attrs
}

func meterRequests(set *metrics.Set) func(huma.Context, func(huma.Context)) {
	buckets := metrics.ExponentialBuckets(1e-3, 5, 6) //nolint: mnd // arbitrary

	return func(ctx huma.Context, next func(huma.Context)) {
		op, start := ctx.Operation(), time.Now()
		next(ctx)

		labels := joinQuote("{method=", op.Method, ",path=", op.Path, ",status=", strconv.Itoa(ctx.Status()), "}")
		set.GetOrCreateCounter("http_requests_total" + labels).Inc()
		set.GetOrCreatePrometheusHistogramExt("http_request_duration_seconds"+labels, buckets).UpdateDuration(start)
	}
}
