// Package tracing configures OpenTelemetry export for analysis runs.
package tracing

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/moolen/logsieve/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"
)

// ServiceName is reported as the OTLP resource service name.
const ServiceName = "logsieve"

const setupTimeout = 5 * time.Second

// Config selects the OTLP collector. Tracing is off when Endpoint is empty.
type Config struct {
	// Endpoint is the OTLP gRPC collector address, e.g. "otel-collector:4317".
	Endpoint string

	// TLSCAPath enables TLS verified against this CA bundle.
	TLSCAPath string

	// TLSInsecure enables TLS without certificate verification.
	TLSInsecure bool

	// SampleRatio is the fraction of root traces kept. Values outside
	// (0, 1) keep every trace.
	SampleRatio float64

	ServiceVersion string
}

// Enabled reports whether spans are exported.
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}

// Provider owns the exporting TracerProvider, if any.
type Provider struct {
	tp     *sdktrace.TracerProvider
	logger *logging.Logger
}

// NewProvider sets up span export for cfg and installs the provider
// globally. With tracing off it returns a provider that hands out the
// global (no-op by default) tracer.
func NewProvider(cfg Config) (*Provider, error) {
	logger := logging.GetLogger("tracing")
	if !cfg.Enabled() {
		logger.Debug("Tracing disabled")
		return &Provider{logger: logger}, nil
	}

	creds, err := transportCredentials(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if creds == nil {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(creds))
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	version := cfg.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(tp)

	logger.Info("Exporting traces to %s", cfg.Endpoint)
	return &Provider{tp: tp, logger: logger}, nil
}

// transportCredentials returns nil for a plaintext connection.
func transportCredentials(cfg Config) (credentials.TransportCredentials, error) {
	switch {
	case cfg.TLSInsecure:
		return credentials.NewTLS(&tls.Config{
			InsecureSkipVerify: true,
			MinVersion:         tls.VersionTLS12,
		}), nil
	case cfg.TLSCAPath != "":
		pem, err := os.ReadFile(cfg.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.TLSCAPath)
		}
		return credentials.NewTLS(&tls.Config{
			RootCAs:    pool,
			MinVersion: tls.VersionTLS12,
		}), nil
	default:
		return nil, nil
	}
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 || ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// Shutdown flushes buffered spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	if err := p.tp.Shutdown(ctx); err != nil {
		p.logger.Error("Failed to flush traces: %v", err)
		return err
	}
	return nil
}

// Tracer returns a named tracer from the exporting provider, or from the
// global provider when tracing is off.
func (p *Provider) Tracer(name string) trace.Tracer {
	if p.tp == nil {
		return otel.GetTracerProvider().Tracer(name)
	}
	return p.tp.Tracer(name)
}

// IsEnabled reports whether spans are exported.
func (p *Provider) IsEnabled() bool {
	return p.tp != nil
}
