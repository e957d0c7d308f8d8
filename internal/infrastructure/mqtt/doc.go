// Package mqtt wraps paho.mqtt.golang for the handsense broker surface.
//
// The wrapper owns connection management, Last Will and Testament setup,
// automatic reconnection with exponential backoff, and re-subscription
// after reconnect. Outbound traffic is hand telemetry (joint state, shape
// estimates, tactile summaries); inbound traffic is joint and limit
// commands from remote producers.
//
// All methods are safe for concurrent use.
package mqtt
