package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestNewProvider(t *testing.T) {
	badCA := filepath.Join(t.TempDir(), "ca.crt")
	require.NoError(t, os.WriteFile(badCA, []byte("not a certificate"), 0o600))

	tests := []struct {
		name        string
		cfg         Config
		wantEnabled bool
		expectError bool
	}{
		{name: "disabled", cfg: Config{}},
		{name: "plaintext", cfg: Config{Endpoint: "localhost:4317"}, wantEnabled: true},
		{name: "tls skip verify", cfg: Config{Endpoint: "localhost:4317", TLSInsecure: true}, wantEnabled: true},
		{name: "missing CA file", cfg: Config{Endpoint: "localhost:4317", TLSCAPath: "/path/to/ca.crt"}, expectError: true},
		{name: "CA file without certificates", cfg: Config{Endpoint: "localhost:4317", TLSCAPath: badCA}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.cfg)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnabled, provider.IsEnabled())
			assert.NotNil(t, provider.Tracer("test"))
			assert.NoError(t, provider.Shutdown(context.Background()))
		})
	}
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}
