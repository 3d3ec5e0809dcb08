package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/campus-events/internal/config"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), config.Tracing{Enabled: false})
	require.NoError(t, err)
	require.False(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "test-span")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_EnabledWithoutExporter(t *testing.T) {
	provider, err := NewProvider(context.Background(), config.Tracing{Enabled: true, Exporter: "none"})
	require.NoError(t, err)
	require.True(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "test-span")
	require.True(t, span.SpanContext().IsValid(), "sdk provider should produce real span contexts")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), config.Tracing{Enabled: true, Exporter: "carrier-pigeon"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported exporter")
}
