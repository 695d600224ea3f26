package observability

import (
	"strings"

	"github.com/smallbiznis/talentlink/internal/config"
)

// Config is the slice of application config the logger, tracer and meter need.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "talentlink"
	}
	t := cfg.Telemetry
	return Config{
		ServiceName:          name,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             strings.TrimSpace(t.LogLevel),
		LogFormat:            strings.TrimSpace(t.LogFormat),
		OtelEnabled:          t.Enabled,
		OtelExporterEndpoint: strings.TrimSpace(t.Endpoint),
		OtelExporterProtocol: strings.TrimSpace(t.Protocol),
		OtelSamplingRatio:    t.SamplingRatio,
	}
}

// Debug enables verbose logging and gin debug mode for local environments.
func (c Config) Debug() bool {
	if strings.EqualFold(c.LogLevel, "debug") {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}
