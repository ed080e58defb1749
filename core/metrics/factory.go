package metrics

import "github.com/kilianp07/planday/core/factory"

// NewMetricsSink creates a MetricsSink from the provided configuration using
// the factories registered in reg.
func NewMetricsSink(reg *factory.Registry[MetricsSink], cfgs []factory.ModuleConfig) (MetricsSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return reg.Create(cfgs[0])
	}
	sinks := make([]MetricsSink, len(cfgs))
	for i, c := range cfgs {
		s, err := reg.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}
