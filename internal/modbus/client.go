package modbus

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Default timeouts for device communication.
const (
	defaultConnectTimeout = 5 * time.Second
	defaultReadTimeout    = 3 * time.Second
	defaultWriteTimeout   = 3 * time.Second
)

// Config holds the device connection configuration.
type Config struct {
	// Address is the controller's host:port endpoint.
	Address string

	// UnitID is the Modbus unit identifier, fixed per device.
	UnitID byte

	// ConnectTimeout is the maximum time to wait for the TCP connection.
	// Default: 5 seconds.
	ConnectTimeout time.Duration

	// ReadTimeout bounds each response read. Default: 3 seconds.
	ReadTimeout time.Duration

	// WriteTimeout bounds each request write. Default: 3 seconds.
	WriteTimeout time.Duration
}

// Stats holds operational statistics.
type Stats struct {
	RequestsTx   uint64
	ResponsesRx  uint64
	ErrorsTotal  uint64
	LastActivity time.Time
	Connected    bool
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Conn is the register access interface implemented by Client.
// It exists so the poller and dispatcher can be tested against a fake device.
type Conn interface {
	ReadRegisters(ctx context.Context, addr uint16, count int) ([]uint16, error)
	WriteRegisters(ctx context.Context, addr uint16, values []uint16) error
	IsConnected() bool
}

// Ensure Client implements Conn.
var _ Conn = (*Client)(nil)

// Client is a Modbus TCP client over a single persistent connection.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Requests from concurrent callers are serialised through the
//     in-flight gate; the protocol assumes strict request/response
//     alternation and the client never pipelines.
//
// Lifecycle:
//   - Created by Connect, torn down by Close or by the first I/O failure.
//   - After teardown every call fails with ErrConnectionLost; there is no
//     automatic reconnection. Callers create a fresh client to reconnect.
type Client struct {
	cfg  Config
	conn net.Conn

	// gate is the single in-flight request slot. txnID is guarded by it.
	gate  sync.Mutex
	txnID uint16

	// Connection state
	connMu    sync.RWMutex
	connected bool

	// Logger (optional)
	logger   Logger
	loggerMu sync.RWMutex

	// Statistics (atomic for performance)
	requestsTx   atomic.Uint64
	responsesRx  atomic.Uint64
	errorsTotal  atomic.Uint64
	lastActivity atomic.Int64 // Unix timestamp
}

// Connect establishes the TCP connection to the hand controller.
//
// Parameters:
//   - ctx: Context for cancellation of the initial dial
//   - cfg: Connection configuration
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If the dial fails or times out
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	if ctx == nil {
		ctx = context.Background()
	}
	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, cfg.Address, err)
	}

	c := &Client{
		cfg:       cfg,
		conn:      conn,
		connected: true,
	}
	c.lastActivity.Store(time.Now().Unix())

	return c, nil
}

// ReadRegisters reads count registers starting at addr.
//
// Reads above the per-request cap are serviced by sequential sub-requests
// advancing the address in ascending order, and the results concatenated.
// A failure in any sub-request aborts the whole read; no partial result is
// ever returned.
//
// Parameters:
//   - ctx: Context for cancellation (checked between sub-requests)
//   - addr: First register address
//   - count: Number of registers to read
//
// Returns:
//   - []uint16: The register values in address order
//   - error: ErrConnectionLost or ErrProtocol on failure
func (c *Client) ReadRegisters(ctx context.Context, addr uint16, count int) ([]uint16, error) {
	if count <= 0 {
		return nil, nil
	}

	values := make([]uint16, 0, count)
	for count > 0 {
		chunk := count
		if chunk > MaxRegistersPerRead {
			chunk = MaxRegistersPerRead
		}

		resp, err := c.request(ctx, FuncReadHoldingRegisters, encodeReadPayload(addr, uint16(chunk)))
		if err != nil {
			return nil, err
		}

		// Response body: byte count followed by the register values.
		if len(resp) < 1 || int(resp[0]) != bytesPerRegister*chunk {
			c.teardown()
			return nil, fmt.Errorf("%w: read byte count %d, want %d",
				ErrProtocol, resp[0], bytesPerRegister*chunk)
		}
		regs, err := decodeRegisters(resp[1:], chunk)
		if err != nil {
			c.teardown()
			return nil, err
		}

		values = append(values, regs...)
		addr += uint16(chunk)
		count -= chunk
	}
	return values, nil
}

// WriteRegisters writes values to consecutive registers starting at addr.
//
// The write is a single request; the value slice length determines both
// the register count field and the payload size. The acknowledgement is
// checked for length only.
//
// Returns:
//   - error: ErrEmptyWrite, ErrTooManyRegisters, ErrConnectionLost or
//     ErrProtocol on failure
func (c *Client) WriteRegisters(ctx context.Context, addr uint16, values []uint16) error {
	if len(values) == 0 {
		return ErrEmptyWrite
	}
	if len(values) > MaxRegistersPerWrite {
		return fmt.Errorf("%w: %d registers", ErrTooManyRegisters, len(values))
	}

	resp, err := c.request(ctx, FuncWriteMultipleRegisters, encodeWritePayload(addr, values))
	if err != nil {
		return err
	}

	// Fixed-size acknowledgement: echoed address (2) + quantity (2).
	// The payload is not validated beyond its length.
	if len(resp) != 4 {
		c.teardown()
		return fmt.Errorf("%w: write ack %d bytes, want 4", ErrProtocol, len(resp))
	}
	return nil
}

// request performs one request/response exchange.
//
// It acquires the in-flight gate, allocates the next transaction id, writes
// the full frame in one operation, then reads exactly the fixed header and
// exactly the byte count the header declares. The gate is released on every
// path. Any I/O or framing failure tears the connection down.
//
// The returned slice is the response body after the function code.
func (c *Client) request(ctx context.Context, fc byte, payload []byte) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("modbus: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return nil, ErrConnectionLost
	}

	c.gate.Lock()
	defer c.gate.Unlock()

	// Re-check under the gate: a concurrent caller may have torn the
	// connection down while we were blocked.
	if !c.IsConnected() {
		return nil, ErrConnectionLost
	}

	c.txnID++ // wraps at 16 bits by type
	txn := c.txnID

	frame := encodeADU(txn, c.cfg.UnitID, fc, payload)

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		c.teardown()
		return nil, fmt.Errorf("%w: set write deadline: %w", ErrConnectionLost, err)
	}
	if _, err := c.conn.Write(frame); err != nil {
		c.teardown()
		c.errorsTotal.Add(1)
		return nil, fmt.Errorf("%w: write: %w", ErrConnectionLost, err)
	}
	c.requestsTx.Add(1)

	body, err := c.readResponse(txn, fc)
	if err != nil {
		return nil, err
	}

	c.responsesRx.Add(1)
	c.lastActivity.Store(time.Now().Unix())
	return body, nil
}

// readResponse reads and validates one response frame. Partial reads are
// expected over a stream socket, so both reads use io.ReadFull.
func (c *Client) readResponse(txn uint16, fc byte) ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
		c.teardown()
		return nil, fmt.Errorf("%w: set read deadline: %w", ErrConnectionLost, err)
	}

	var headerBuf [mbapHeaderLen]byte
	if _, err := io.ReadFull(c.conn, headerBuf[:]); err != nil {
		c.teardown()
		c.errorsTotal.Add(1)
		return nil, fmt.Errorf("%w: read header: %w", ErrConnectionLost, err)
	}

	header, err := parseMBAPHeader(headerBuf[:])
	if err != nil {
		c.teardown()
		c.errorsTotal.Add(1)
		return nil, err
	}

	// Remaining bytes after the unit id: function code + body.
	rest := make([]byte, int(header.length)-1)
	if _, err := io.ReadFull(c.conn, rest); err != nil {
		c.teardown()
		c.errorsTotal.Add(1)
		return nil, fmt.Errorf("%w: read body: %w", ErrConnectionLost, err)
	}

	if header.txnID != txn {
		c.teardown()
		c.errorsTotal.Add(1)
		return nil, fmt.Errorf("%w: transaction id %d, want %d", ErrProtocol, header.txnID, txn)
	}

	respFC := rest[0]
	if respFC == fc|exceptionFlag {
		if len(rest) < 2 {
			c.teardown()
			return nil, fmt.Errorf("%w: truncated exception frame", ErrProtocol)
		}
		c.errorsTotal.Add(1)
		// Exceptions do not desynchronise the stream; the connection stays up.
		return nil, fmt.Errorf("%w: function 0x%02X code %d", ErrException, fc, rest[1])
	}
	if respFC != fc {
		c.teardown()
		c.errorsTotal.Add(1)
		return nil, fmt.Errorf("%w: function code 0x%02X, want 0x%02X", ErrProtocol, respFC, fc)
	}

	return rest[1:], nil
}

// teardown marks the client disconnected and closes the socket. Safe to
// call multiple times.
func (c *Client) teardown() {
	c.connMu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.connMu.Unlock()

	if wasConnected {
		if c.conn != nil {
			c.conn.Close()
		}
		c.logWarn("connection torn down")
	}
}

// IsConnected returns true until the connection is torn down or closed.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// Close tears down the connection. Pending exchanges fail with
// ErrConnectionLost. Safe to call multiple times.
func (c *Client) Close() error {
	c.teardown()
	return nil
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// Stats returns current operational statistics.
func (c *Client) Stats() Stats {
	return Stats{
		RequestsTx:   c.requestsTx.Load(),
		ResponsesRx:  c.responsesRx.Load(),
		ErrorsTotal:  c.errorsTotal.Load(),
		LastActivity: time.Unix(c.lastActivity.Load(), 0),
		Connected:    c.IsConnected(),
	}
}

// logWarn logs a warning if a logger is set.
func (c *Client) logWarn(msg string, keysAndValues ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}
