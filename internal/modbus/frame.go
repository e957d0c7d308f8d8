package modbus

import (
	"encoding/binary"
	"fmt"
)

// Function codes used by the hand controller.
const (
	// FuncReadHoldingRegisters reads a contiguous block of 16-bit registers.
	FuncReadHoldingRegisters byte = 0x03

	// FuncWriteMultipleRegisters writes a contiguous block of 16-bit registers.
	FuncWriteMultipleRegisters byte = 0x10
)

// Framing constants.
const (
	// mbapHeaderLen is the fixed MBAP header size: transaction id (2),
	// protocol id (2), length (2), unit id (1).
	mbapHeaderLen = 7

	// protocolID is always zero for Modbus.
	protocolID uint16 = 0

	// exceptionFlag is set on the function code of an exception response.
	exceptionFlag byte = 0x80

	// MaxRegistersPerRead is the hand firmware's per-request register cap.
	// The Modbus protocol allows up to 125, but the controller rejects
	// reads above 64; larger ranges are chunked by ReadRegisters.
	MaxRegistersPerRead = 64

	// MaxRegistersPerWrite is the per-request cap for writes. All writes
	// in this system are at most 6 registers, so no chunking exists on
	// the write path; callers must stay within this limit.
	MaxRegistersPerWrite = 64

	// bytesPerRegister is the wire size of one register value.
	bytesPerRegister = 2
)

// encodeADU builds a complete request frame: MBAP header, function code
// and function-specific payload. The length field counts unit id, function
// code and payload.
func encodeADU(txnID uint16, unitID byte, fc byte, payload []byte) []byte {
	frame := make([]byte, mbapHeaderLen+1+len(payload))
	binary.BigEndian.PutUint16(frame[0:2], txnID)
	binary.BigEndian.PutUint16(frame[2:4], protocolID)
	binary.BigEndian.PutUint16(frame[4:6], uint16(2+len(payload))) // unit + fc + payload
	frame[6] = unitID
	frame[7] = fc
	copy(frame[8:], payload)
	return frame
}

// encodeReadPayload builds the payload of a read-holding-registers request:
// 2-byte start address followed by 2-byte quantity.
func encodeReadPayload(addr, quantity uint16) []byte {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:2], addr)
	binary.BigEndian.PutUint16(payload[2:4], quantity)
	return payload
}

// encodeWritePayload builds the payload of a write-multiple-registers
// request: 2-byte start address, 2-byte quantity, 1-byte byte count and
// the big-endian register values.
func encodeWritePayload(addr uint16, values []uint16) []byte {
	payload := make([]byte, 5+bytesPerRegister*len(values))
	binary.BigEndian.PutUint16(payload[0:2], addr)
	binary.BigEndian.PutUint16(payload[2:4], uint16(len(values)))
	payload[4] = byte(bytesPerRegister * len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(payload[5+bytesPerRegister*i:], v)
	}
	return payload
}

// mbapHeader is a parsed MBAP response header.
type mbapHeader struct {
	txnID  uint16
	length uint16
	unitID byte
}

// parseMBAPHeader validates and parses the fixed 7-byte response header.
// The length field must cover at least the unit id and a function code.
func parseMBAPHeader(buf []byte) (mbapHeader, error) {
	if len(buf) < mbapHeaderLen {
		return mbapHeader{}, fmt.Errorf("%w: short header (%d bytes)", ErrProtocol, len(buf))
	}
	if proto := binary.BigEndian.Uint16(buf[2:4]); proto != protocolID {
		return mbapHeader{}, fmt.Errorf("%w: protocol id 0x%04X", ErrProtocol, proto)
	}
	length := binary.BigEndian.Uint16(buf[4:6])
	if length < 2 {
		return mbapHeader{}, fmt.Errorf("%w: declared length %d", ErrProtocol, length)
	}
	return mbapHeader{
		txnID:  binary.BigEndian.Uint16(buf[0:2]),
		length: length,
		unitID: buf[6],
	}, nil
}

// decodeRegisters converts a big-endian register payload into values.
// The payload length must be exactly count registers.
func decodeRegisters(data []byte, count int) ([]uint16, error) {
	if len(data) != bytesPerRegister*count {
		return nil, fmt.Errorf("%w: register payload %d bytes, want %d",
			ErrProtocol, len(data), bytesPerRegister*count)
	}
	values := make([]uint16, count)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(data[bytesPerRegister*i:])
	}
	return values, nil
}
