// Package metrics defines the events emitted while generating instances and
// scoring candidates, together with the sink interfaces that record them.
// Concrete sinks (Prometheus, InfluxDB, the SQLite KPI store) live in infra;
// several sinks can be combined with NewMultiSink. NewMetricsSink builds one
// from configuration using a factory registry.
package metrics
