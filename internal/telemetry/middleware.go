package telemetry

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the per-request tracing middleware.
type Config struct {
	ServiceName string
	// Skip suppresses tracing for matching requests (probes, scrapes).
	Skip func(*fiber.Ctx) bool
}

func defaultSkip(c *fiber.Ctx) bool {
	switch c.Path() {
	case "/healthz", "/metrics", "/v1/healthz", "/v1/liveness", "/v1/readiness":
		return true
	}
	return false
}

// New returns a fiber middleware that opens a server span per request and
// records the HTTP instruments. Trace context is picked up from incoming
// headers so spans join upstream traces.
func New(cfg Config) fiber.Handler {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "storemaps-api"
	}
	if cfg.Skip == nil {
		cfg.Skip = defaultSkip
	}

	return func(c *fiber.Ctx) error {
		if cfg.Skip(c) {
			return c.Next()
		}

		start := time.Now()
		method := c.Method()
		path := c.Path()

		reqAttrs := metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		)
		if httpActiveRequests != nil {
			httpActiveRequests.Add(c.Context(), 1, reqAttrs)
		}

		tr := otel.GetTracerProvider().Tracer(cfg.ServiceName)
		ctx := otel.GetTextMapPropagator().Extract(
			c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := tr.Start(ctx, method+" "+path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethodKey.String(method),
				semconv.HTTPTargetKey.String(path),
				semconv.HTTPURLKey.String(c.OriginalURL()),
				semconv.NetHostNameKey.String(c.Hostname()),
				semconv.HTTPUserAgentKey.String(string(c.Request().Header.UserAgent())),
			),
		)
		defer span.End()

		c.SetUserContext(ctx)
		err := c.Next()

		status := c.Response().StatusCode()
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, "server error")
		}

		if httpActiveRequests != nil {
			httpActiveRequests.Add(c.Context(), -1, reqAttrs)
		}

		fullAttrs := metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
			attribute.String("status", strconv.Itoa(status)),
		)
		if httpRequestsTotal != nil {
			httpRequestsTotal.Add(c.Context(), 1, fullAttrs)
		}
		if httpRequestDuration != nil {
			httpRequestDuration.Record(c.Context(), time.Since(start).Seconds(), fullAttrs)
		}

		return err
	}
}
