package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/handsense/handsense-core/internal/hand"
	"github.com/handsense/handsense-core/internal/modbus"
)

// Logger is the subset of the application logger the dispatcher needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Stats are cumulative dispatcher counters.
type Stats struct {
	Enqueued  uint64
	Written   uint64
	Coalesced uint64
	Discarded uint64
	Failed    uint64
}

// Dispatcher owns the joint command path to the device. It outlives
// individual register connections: the supervisor binds a fresh connection
// after each redial with SetConn, and commands drained while no connection
// is bound are discarded.
type Dispatcher struct {
	drain  time.Duration
	logger Logger

	connMu sync.RWMutex
	conn   modbus.Conn

	mu     sync.Mutex
	queue  []hand.JointVector
	target hand.JointVector
	hasCmd bool

	enqueued  atomic.Uint64
	written   atomic.Uint64
	coalesced atomic.Uint64
	discarded atomic.Uint64
	failed    atomic.Uint64
}

// New builds a dispatcher draining on the given interval.
func New(drainInterval time.Duration) *Dispatcher {
	if drainInterval <= 0 {
		drainInterval = 50 * time.Millisecond
	}
	return &Dispatcher{drain: drainInterval, logger: nopLogger{}}
}

// SetLogger replaces the dispatcher's logger.
func (d *Dispatcher) SetLogger(l Logger) {
	if l != nil {
		d.logger = l
	}
}

// SetConn binds the register connection used for writes. Pass nil to
// unbind; drained commands are then discarded until a new connection is
// bound.
func (d *Dispatcher) SetConn(conn modbus.Conn) {
	d.connMu.Lock()
	d.conn = conn
	d.connMu.Unlock()
}

func (d *Dispatcher) connection() modbus.Conn {
	d.connMu.RLock()
	defer d.connMu.RUnlock()
	return d.conn
}

// Enqueue queues a target joint vector. Values are clamped to the valid
// angle range before queueing. Never blocks.
func (d *Dispatcher) Enqueue(v hand.JointVector) {
	v = v.ClampAngles()
	d.mu.Lock()
	d.queue = append(d.queue, v)
	d.target = v
	d.hasCmd = true
	d.mu.Unlock()
	d.enqueued.Add(1)
}

// Target returns the most recently enqueued command, whether or not it has
// been written yet. ok is false before the first Enqueue.
func (d *Dispatcher) Target() (v hand.JointVector, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.target, d.hasCmd
}

// SetSpeed writes the per-joint speed limits immediately, bypassing the
// queue. Values are clamped to the valid range.
func (d *Dispatcher) SetSpeed(ctx context.Context, v hand.JointVector) error {
	return d.writeDirect(ctx, hand.RegSpeed, v.ClampSpeeds(), "speed")
}

// SetForce writes the per-joint force limits immediately, bypassing the
// queue. Values are clamped to the valid range.
func (d *Dispatcher) SetForce(ctx context.Context, v hand.JointVector) error {
	return d.writeDirect(ctx, hand.RegForce, v.ClampForces(), "force")
}

func (d *Dispatcher) writeDirect(ctx context.Context, addr uint16, v hand.JointVector, what string) error {
	conn := d.connection()
	if conn == nil || !conn.IsConnected() {
		return ErrNoConnection
	}
	if err := conn.WriteRegisters(ctx, addr, v.Registers()); err != nil {
		d.failed.Add(1)
		return fmt.Errorf("write %s limits: %w", what, err)
	}
	d.logger.Debug("limits written", "kind", what, "values", v.String())
	return nil
}

// Run drains the queue until ctx is cancelled. Each drain keeps only the
// newest queued command and performs at most one register write.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("command dispatcher started", "drain_interval", d.drain)

	ticker := time.NewTicker(d.drain)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("command dispatcher stopped")
			return nil
		case <-ticker.C:
			d.drainOnce(ctx)
		}
	}
}

// drainOnce empties the queue and writes the newest command, if any.
func (d *Dispatcher) drainOnce(ctx context.Context) {
	d.mu.Lock()
	n := len(d.queue)
	if n == 0 {
		d.mu.Unlock()
		return
	}
	cmd := d.queue[n-1]
	d.queue = d.queue[:0]
	d.mu.Unlock()

	if n > 1 {
		d.coalesced.Add(uint64(n - 1))
	}

	conn := d.connection()
	if conn == nil || !conn.IsConnected() {
		d.discarded.Add(1)
		d.logger.Debug("command discarded, no connection", "dropped", n)
		return
	}

	if err := conn.WriteRegisters(ctx, hand.RegJointCommand, cmd.Registers()); err != nil {
		d.failed.Add(1)
		d.logger.Warn("joint command write failed", "error", err)
		return
	}
	d.written.Add(1)
	d.logger.Debug("joint command written", "target", cmd.String(), "coalesced", n-1)
}

// Stats returns cumulative dispatch counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Enqueued:  d.enqueued.Load(),
		Written:   d.written.Load(),
		Coalesced: d.coalesced.Load(),
		Discarded: d.discarded.Load(),
		Failed:    d.failed.Load(),
	}
}
