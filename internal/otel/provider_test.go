package otel

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.NotNil(t, p.Meter("rltrack/test"))
}

func TestNew_EnabledWithoutExporter(t *testing.T) {
	_, err := New(context.Background(), Config{Enabled: true, ServiceName: "rltrack"})
	assert.ErrorIs(t, err, ErrNoExporter)
}

func TestNew_WriterExport(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(context.Background(), Config{
		Enabled:   true,
		LogWriter: &buf,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())
	assert.True(t, p.Enabled())

	logger := slog.New(otelslog.NewHandler("rltrack", otelslog.WithLoggerProvider(p.LoggerProvider())))
	logger.Info("replay extracted", "cars", 6)

	require.NoError(t, p.Flush(context.Background()))
	assert.Contains(t, buf.String(), "replay extracted")
	assert.Contains(t, buf.String(), "rltrack")

	require.NoError(t, p.Shutdown(context.Background()))
}
