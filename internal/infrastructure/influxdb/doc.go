// Package influxdb wraps the InfluxDB v2 client for handsense telemetry.
//
// Writes are non-blocking and batched by the underlying write API. The
// recorded series are per-region tactile pressure, per-joint angles, and
// shape classification results, all tagged for cheap downsampling.
// Telemetry must never stall acquisition: when the client is disconnected
// every write helper is a silent no-op.
package influxdb
