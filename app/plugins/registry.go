// Package plugins assembles the module registries used by the application:
// corpus stores, metrics sinks and completion sources.
package plugins

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/planday/config"
	"github.com/kilianp07/planday/core/completion"
	"github.com/kilianp07/planday/core/corpus"
	"github.com/kilianp07/planday/core/factory"
	coremetrics "github.com/kilianp07/planday/core/metrics"
	"github.com/kilianp07/planday/core/monitoring"
	"github.com/kilianp07/planday/infra/logger"
	inframetrics "github.com/kilianp07/planday/infra/metrics"
	"github.com/kilianp07/planday/infra/mqtt"
)

// Registries holds one registry per pluggable concern.
type Registries struct {
	Stores     *factory.Registry[corpus.Store]
	Sinks      *factory.Registry[coremetrics.MetricsSink]
	Completers *factory.Registry[completion.Completer]
}

// New returns registries holding every built-in module. Prometheus
// collectors are registered on reg. The "mqtt" completer reads its
// connection settings from mqttCfg, conf keys overriding the topics.
func New(mqttCfg config.MQTTConfig, reg prometheus.Registerer, log logger.Logger, mon monitoring.Monitor) *Registries {
	completers := completion.Completers()
	_ = completers.Register("mqtt", func(conf map[string]any) (completion.Completer, error) {
		cfg := mqttCfg
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		return mqtt.NewCompleter(cfg, log, mon)
	})
	return &Registries{
		Stores:     corpus.Stores(),
		Sinks:      inframetrics.Sinks(reg, log),
		Completers: completers,
	}
}

// MetricsSink builds the configured sinks, NopSink when none is listed.
func (r *Registries) MetricsSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return coremetrics.NewMetricsSink(r.Sinks, cfg.Sinks)
}
