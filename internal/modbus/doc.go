// Package modbus implements the Modbus TCP client used to talk to the
// dexterous hand controller.
//
// The hand exposes joint targets, actual angles and tactile sensor arrays
// as 16-bit holding registers. Only two function codes are used: read
// holding registers (0x03) and write multiple registers (0x10).
//
// The protocol has no intrinsic multiplexing: the client serialises all
// outstanding requests through a single in-flight gate and matches each
// response to its request by transaction id. Reads larger than the device's
// per-request register cap are serviced transparently by sequential
// sub-requests in ascending address order.
//
// Framing errors are fatal to the connection: once the stream is
// desynchronised it cannot safely be resumed, so the client tears the
// connection down and surfaces ErrConnectionLost to all subsequent calls
// until a new Connect succeeds.
package modbus
