// Package tracking ingests hand pose frames from the external camera
// tracker over UDP.
//
// The tracker helper is a separate process that publishes one JSON
// datagram per camera frame on the loopback interface: a detected flag,
// six smoothed joint angles and the raw landmark cloud. The listener
// coerces angles onto the device range and feeds them to the command
// dispatcher; malformed datagrams are counted and dropped, never fatal.
package tracking
