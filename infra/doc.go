// Package infra contains technical adapters: the MQTT completion client,
// metrics exporters, the SQLite KPI store, logging and error monitoring.
// These packages depend only on the interfaces defined in the core packages.
package infra
