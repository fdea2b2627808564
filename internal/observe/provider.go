package observe

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

/*
 * ProviderConfig configures the OpenTelemetry SDK meter provider.
 */
type ProviderConfig struct {
	/*
	 * ServiceName is the service name reported in telemetry. Default: "fretscribe".
	 */
	ServiceName string

	/*
	 * ServiceVersion is the service version reported in telemetry.
	 */
	ServiceVersion string
}

/*
 * InitProvider sets up a [sdkmetric.MeterProvider] with a Prometheus
 * exporter and registers it as the global OTel meter provider, so that
 * [DefaultMetrics] and [MetricsHandler] serve the same instruments.
 *
 * Returns a shutdown function that flushes and closes the exporter.
 */
func InitProvider(ctx context.Context, cfg ProviderConfig) (shutdown func(context.Context) error, err error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "fretscribe"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	promExp, err := promexporter.New()
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

/*
 * MetricsHandler returns the Prometheus scrape handler for the default
 * registry the exporter writes to.
 */
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
