package extract

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/arena-replay/rltrack/internal/extract"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
