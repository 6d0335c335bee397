// Package prometheus exports run.MetricsCollector events as Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	rc := run.New(run.WithMetrics(simmatprom.NewCollector(reg)))
package prometheus
