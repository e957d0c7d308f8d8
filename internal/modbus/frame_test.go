package modbus

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeADU(t *testing.T) {
	tests := []struct {
		name    string
		txnID   uint16
		unitID  byte
		fc      byte
		payload []byte
		want    []byte
	}{
		{
			name:    "read request",
			txnID:   0x0102,
			unitID:  1,
			fc:      FuncReadHoldingRegisters,
			payload: []byte{0x05, 0xCE, 0x00, 0x06}, // addr 1486, qty 6
			want: []byte{
				0x01, 0x02, // txn
				0x00, 0x00, // protocol
				0x00, 0x06, // length: unit + fc + 4
				0x01,                   // unit
				0x03,                   // fc
				0x05, 0xCE, 0x00, 0x06, // payload
			},
		},
		{
			name:    "empty payload",
			txnID:   0xFFFF,
			unitID:  0,
			fc:      0x2B,
			payload: nil,
			want:    []byte{0xFF, 0xFF, 0x00, 0x00, 0x00, 0x02, 0x00, 0x2B},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeADU(tt.txnID, tt.unitID, tt.fc, tt.payload)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("encodeADU() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestEncodeWritePayload(t *testing.T) {
	got := encodeWritePayload(1486, []uint16{1000, 0, 500})
	want := []byte{
		0x05, 0xCE, // addr
		0x00, 0x03, // quantity
		0x06,       // byte count
		0x03, 0xE8, // 1000
		0x00, 0x00, // 0
		0x01, 0xF4, // 500
	}
	if !bytes.Equal(got, want) {
		t.Errorf("encodeWritePayload() = % X, want % X", got, want)
	}
}

func TestParseMBAPHeader(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		want    mbapHeader
		wantErr bool
	}{
		{
			name: "valid",
			buf:  []byte{0x00, 0x07, 0x00, 0x00, 0x00, 0x0F, 0x01},
			want: mbapHeader{txnID: 7, length: 15, unitID: 1},
		},
		{
			name:    "short",
			buf:     []byte{0x00, 0x07, 0x00},
			wantErr: true,
		},
		{
			name:    "nonzero protocol id",
			buf:     []byte{0x00, 0x07, 0x00, 0x01, 0x00, 0x0F, 0x01},
			wantErr: true,
		},
		{
			name:    "length below minimum",
			buf:     []byte{0x00, 0x07, 0x00, 0x00, 0x00, 0x01, 0x01},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMBAPHeader(tt.buf)
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseMBAPHeader() expected error, got nil")
				}
				if !errors.Is(err, ErrProtocol) {
					t.Errorf("error = %v, want ErrProtocol", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMBAPHeader() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseMBAPHeader() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeRegisters(t *testing.T) {
	values, err := decodeRegisters([]byte{0x03, 0xE8, 0x00, 0x2A}, 2)
	if err != nil {
		t.Fatalf("decodeRegisters() unexpected error: %v", err)
	}
	if values[0] != 1000 || values[1] != 42 {
		t.Errorf("decodeRegisters() = %v, want [1000 42]", values)
	}

	if _, err := decodeRegisters([]byte{0x03, 0xE8, 0x00}, 2); !errors.Is(err, ErrProtocol) {
		t.Errorf("decodeRegisters() short payload error = %v, want ErrProtocol", err)
	}
}
