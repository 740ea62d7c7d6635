package observability_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/squeaky/pkg/observability"
)

func TestDefaultConfig_HasSensibleDefaults(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "squeaky", cfg.ServiceName)
	assert.Equal(t, 5, cfg.ShutdownTimeoutSec)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Empty(t, cfg.MetricsTextfile)
	assert.Empty(t, cfg.RunID)
}

func TestInit_NoopWhenNoExporters(t *testing.T) {
	t.Parallel()

	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)
	assert.Len(t, providers.RunID, 36)

	ctx, span := providers.Tracer.Start(context.Background(), "test-op")
	span.End()
	assert.NotNil(t, ctx)

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInit_LoggerCarriesRunMetadata(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.Command = "verify"
	cfg.RunID = "fixed-run"
	cfg.LogJSON = true
	cfg.LogWriter = &buf

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	providers.Logger.Info("hello")

	record := decode(t, &buf)
	assert.Equal(t, "verify", record["command"])
	assert.Equal(t, "fixed-run", record["run_id"])
	assert.Equal(t, "fixed-run", providers.RunID)
}

func TestInit_WritesMetricsTextfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "squeaky.prom")

	cfg := observability.DefaultConfig()
	cfg.Command = "clean"
	cfg.MetricsTextfile = path

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	metrics, err := observability.NewRunMetrics(providers.Meter, cfg.Command)
	require.NoError(t, err)

	metrics.AddNamespaced(context.Background(), 3)

	require.NoError(t, providers.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "squeaky_selectors_namespaced")
	assert.Contains(t, string(data), `command="clean"`)
}
