// Package telemetry wraps OpenTelemetry SDK setup for traces. When
// telemetry is disabled, no exporters are created and global providers
// remain noop.
package telemetry
