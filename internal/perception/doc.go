// Package perception turns raw tactile snapshots into higher-level state:
// a forward-kinematic hand pose, per-region contact analyses, a 3D contact
// cloud and a grasped-object shape estimate.
//
// The engine is purely computational and synchronous. The acquisition
// poller feeds it one snapshot per cycle; each call produces an immutable
// Result which is stored as the latest and handed to the sink for fan-out
// (MQTT, WebSocket, InfluxDB).
package perception
