package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/planday/core/factory"
	coremetrics "github.com/kilianp07/planday/core/metrics"
	"github.com/kilianp07/planday/infra/kpi"
	"github.com/kilianp07/planday/infra/logger"
)

// Sinks returns a registry holding the built-in sinks: "nop", "prometheus"
// (collectors registered on reg), "influx" (conf url, token, org, bucket)
// and "sqlite" (conf path), the daily KPI store.
func Sinks(reg prometheus.Registerer, log logger.Logger) *factory.Registry[coremetrics.MetricsSink] {
	r := factory.NewRegistry[coremetrics.MetricsSink]()
	_ = r.Register("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})
	_ = r.Register("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSink(reg)
	})
	_ = r.Register("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c, log), nil
	})
	_ = r.Register("sqlite", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("sqlite sink requires a path")
		}
		return kpi.NewSQLiteStore(c.Path)
	})
	return r
}
