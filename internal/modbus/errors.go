package modbus

import "errors"

// Domain errors for the modbus package.
var (
	// ErrNotConnected is returned when an operation requires a connection
	// but the client has not been connected.
	ErrNotConnected = errors.New("modbus: not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("modbus: connection failed")

	// ErrConnectionLost is returned when the connection is torn down by a
	// socket failure or timeout mid-exchange. The connection is unusable
	// afterwards and must be re-established with Connect.
	ErrConnectionLost = errors.New("modbus: connection lost")

	// ErrProtocol is returned when a response frame is malformed: short
	// read, inconsistent byte count, transaction id mismatch or unexpected
	// function code. The stream framing is considered desynchronised and
	// the connection is torn down.
	ErrProtocol = errors.New("modbus: protocol error")

	// ErrException is returned when the device answers with a Modbus
	// exception response instead of data.
	ErrException = errors.New("modbus: device exception")

	// ErrTooManyRegisters is returned when a single write exceeds the
	// device's per-request register cap.
	ErrTooManyRegisters = errors.New("modbus: too many registers for one request")

	// ErrEmptyWrite is returned when WriteRegisters is called with no values.
	ErrEmptyWrite = errors.New("modbus: write requires at least one register")
)
