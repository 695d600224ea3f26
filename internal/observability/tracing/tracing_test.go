package tracing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestSafeAttributesDropsSensitiveKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/teams"),
		attribute.String("invitee_email", "x@acme.io"),
		attribute.String("invitation.token", "abc"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorHidesMessage(t *testing.T) {
	err := SafeError(errors.New("x@acme.io is not allowed"))
	assert.NotContains(t, err.Error(), "acme.io")
	assert.Nil(t, SafeError(nil))
}

func newTracedEngine(t *testing.T) (*gin.Engine, *tracetest.SpanRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })

	r := gin.New()
	r.Use(HTTPServer(WithTracerProvider(provider), WithSkippedRoutes("/health")))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/teams/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.POST("/api/jobs", func(c *gin.Context) {
		_ = c.Error(errors.New("insert x@acme.io failed"))
		c.Status(http.StatusInternalServerError)
	})
	return r, recorder
}

func serve(r *gin.Engine, method, path string) {
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
}

func attr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestHTTPServerNamesSpansByRoute(t *testing.T) {
	r, recorder := newTracedEngine(t)

	serve(r, http.MethodGet, "/health")
	serve(r, http.MethodGet, "/api/teams/42")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /api/teams/:id", span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, codes.Unset, span.Status().Code)

	route, ok := attr(span, "http.route")
	require.True(t, ok)
	assert.Equal(t, "/api/teams/:id", route.AsString())
	status, ok := attr(span, "http.response.status_code")
	require.True(t, ok)
	assert.EqualValues(t, http.StatusNotFound, status.AsInt64())
}

func TestHTTPServerMarksServerErrors(t *testing.T) {
	r, recorder := newTracedEngine(t)

	serve(r, http.MethodPost, "/api/jobs")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
	for _, kv := range spans[0].Events()[0].Attributes {
		assert.NotContains(t, kv.Value.Emit(), "acme.io")
	}
}
