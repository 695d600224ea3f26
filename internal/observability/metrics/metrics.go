package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

const (
	KindInApp = "in_app"
	KindEmail = "email"
)

// Metrics exposes application-level instruments. A nil *Metrics is a valid no-op.
type Metrics struct {
	teamsCreated          metric.Int64Counter
	invitationsSent       metric.Int64Counter
	invitationsResolved   metric.Int64Counter
	emailDispatchFailures metric.Int64Counter
	invitationsExpired    metric.Int64Counter
	applicationsSubmitted metric.Int64Counter
	jobRuns               metric.Int64Counter
	jobDuration           metric.Float64Histogram
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "talentlink"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	var err error
	if m.teamsCreated, err = meter.Int64Counter("talentlink_teams_created_total"); err != nil {
		return nil, err
	}
	if m.invitationsSent, err = meter.Int64Counter("talentlink_invitations_sent_total"); err != nil {
		return nil, err
	}
	if m.invitationsResolved, err = meter.Int64Counter("talentlink_invitations_resolved_total"); err != nil {
		return nil, err
	}
	if m.emailDispatchFailures, err = meter.Int64Counter("talentlink_email_dispatch_failures_total"); err != nil {
		return nil, err
	}
	if m.invitationsExpired, err = meter.Int64Counter("talentlink_invitations_expired_total"); err != nil {
		return nil, err
	}
	if m.applicationsSubmitted, err = meter.Int64Counter("talentlink_applications_submitted_total"); err != nil {
		return nil, err
	}
	if m.jobRuns, err = meter.Int64Counter("talentlink_scheduler_job_runs_total"); err != nil {
		return nil, err
	}
	if m.jobDuration, err = meter.Float64Histogram("talentlink_scheduler_job_duration_seconds", metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) RecordTeamCreated(ctx context.Context, teamType string) {
	if m == nil {
		return
	}
	m.teamsCreated.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("team_type", teamType))...))
}

func (m *Metrics) RecordInvitationSent(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.invitationsSent.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("kind", kind))...))
}

func (m *Metrics) RecordInvitationResolved(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", strings.ToLower(outcome)),
	)
	m.invitationsResolved.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordEmailDispatchFailure(ctx context.Context, template string) {
	if m == nil {
		return
	}
	m.emailDispatchFailures.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("template", template))...))
}

func (m *Metrics) RecordInvitationsExpired(ctx context.Context, count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.invitationsExpired.Add(ctx, count, metric.WithAttributes(FilterAttributes(attribute.String("kind", KindEmail))...))
}

func (m *Metrics) RecordApplicationSubmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.applicationsSubmitted.Add(ctx, 1)
}

func (m *Metrics) RecordJobRun(ctx context.Context, job string, took time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	attrs := FilterAttributes(attribute.String("job", job), attribute.String("outcome", outcome))
	m.jobRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.jobDuration.Record(ctx, took.Seconds(), metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"kind":        {},
	"outcome":     {},
	"team_type":   {},
	"template":    {},
	"job":         {},
	"method":      {},
	"route":       {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
