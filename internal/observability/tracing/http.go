package tracing

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/talentlink/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const httpScope = "talentlink/http"

type httpOptions struct {
	provider trace.TracerProvider
	skip     map[string]bool
}

type HTTPOption func(*httpOptions)

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(provider trace.TracerProvider) HTTPOption {
	return func(o *httpOptions) { o.provider = provider }
}

// WithSkippedRoutes disables spans for the given route templates, e.g. health checks.
func WithSkippedRoutes(routes ...string) HTTPOption {
	return func(o *httpOptions) {
		for _, route := range routes {
			o.skip[route] = true
		}
	}
}

// HTTPServer opens one server span per request, named after the matched route.
func HTTPServer(opts ...HTTPOption) gin.HandlerFunc {
	o := httpOptions{provider: otel.GetTracerProvider(), skip: map[string]bool{}}
	for _, opt := range opts {
		opt(&o)
	}
	tracer := o.provider.Tracer(httpScope)

	return func(c *gin.Context) {
		if o.skip[c.FullPath()] {
			c.Next()
			return
		}

		parent := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(parent, c.Request.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if id := obscontext.RequestIDFromContext(ctx); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		c.Request = c.Request.WithContext(ctx)

		began := time.Now()
		c.Next()

		route := routeOf(c)
		code := c.Writer.Status()
		span.SetName(c.Request.Method + " " + route)
		span.SetAttributes(SafeAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", code),
			attribute.Float64("http.server.duration_ms", float64(time.Since(began).Microseconds())/1000),
		)...)
		markOutcome(span, c, code)
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// markOutcome flags 5xx spans as errors. 4xx stays unset on server spans.
func markOutcome(span trace.Span, c *gin.Context, code int) {
	if code < http.StatusInternalServerError {
		return
	}
	for _, ginErr := range c.Errors {
		span.RecordError(SafeError(ginErr.Err))
	}
	span.SetStatus(codes.Error, http.StatusText(code))
}
