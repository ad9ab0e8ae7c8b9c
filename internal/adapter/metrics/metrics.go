package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pscheid92/applyme/internal/platform/version"
)

const namespace = "applyme"

// NewRegistry creates a registry with the runtime, process and build-info
// collectors already registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
		buildInfo(),
	)
	return reg
}

// buildInfo exposes the ldflags version as a constant 1-valued gauge.
func buildInfo() prometheus.Collector {
	info := version.Get()
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build information of the running web frontend.",
		ConstLabels: prometheus.Labels{
			"version":    info.Version,
			"commit":     info.Commit,
			"build_time": info.BuildTime,
		},
	})
	g.Set(1)
	return g
}

// TrackActionsInFlight exposes the number of actions currently in flight,
// read from inFlight at scrape time.
func TrackActionsInFlight(reg prometheus.Registerer, inFlight func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "actions_in_flight",
		Help:      "User actions currently waiting on the API.",
	}, func() float64 { return float64(inFlight()) }))
}

// Handler returns an http.Handler that serves the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
