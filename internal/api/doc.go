// Package api provides the HTTP REST API and WebSocket server for
// handsense.
//
// It exposes the latest tactile snapshot, solved hand pose, contact cloud
// and shape estimate to visualization clients, accepts joint, speed and
// force commands, and manages stored pose presets.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// All methods are safe for concurrent use from multiple goroutines.
package api
