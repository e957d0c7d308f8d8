package hand

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/handsense/handsense-core/internal/modbus"
)

// Logger is the subset of the application logger the poller needs.
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

// PollerConfig tunes the acquisition loop.
type PollerConfig struct {
	// Interval between the start of consecutive cycles.
	Interval time.Duration
	// Backoff delay after a failed cycle before retrying.
	Backoff time.Duration
	// FailureThreshold is how many consecutive failures are tolerated
	// before the poller gives up. Zero means keep retrying while the
	// transport reports connected.
	FailureThreshold int
}

// PollerStats are cumulative acquisition counters.
type PollerStats struct {
	Cycles   uint64
	Failures uint64
}

// Poller drives the acquisition loop: each cycle it reads the actual joint
// angles and all sixteen sensor regions, then publishes an immutable
// Snapshot. A failed cycle publishes nothing; the previous snapshot stays
// current until a full cycle succeeds.
type Poller struct {
	conn   modbus.Conn
	cfg    PollerConfig
	logger Logger

	mu     sync.RWMutex
	latest *Snapshot

	onSnapshot func(*Snapshot)

	cycles   atomic.Uint64
	failures atomic.Uint64
}

// NewPoller builds a poller over an established register connection.
func NewPoller(conn modbus.Conn, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 100 * time.Millisecond
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	return &Poller{conn: conn, cfg: cfg, logger: nopLogger{}}
}

// SetLogger replaces the poller's logger.
func (p *Poller) SetLogger(l Logger) {
	if l != nil {
		p.logger = l
	}
}

// OnSnapshot registers a callback invoked after each published snapshot.
// Must be set before Run starts. The callback runs on the poll goroutine,
// so it must not block.
func (p *Poller) OnSnapshot(fn func(*Snapshot)) {
	p.onSnapshot = fn
}

// Latest returns the most recently published snapshot, or nil before the
// first successful cycle.
func (p *Poller) Latest() *Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Stats returns cumulative cycle counters.
func (p *Poller) Stats() PollerStats {
	return PollerStats{
		Cycles:   p.cycles.Load(),
		Failures: p.failures.Load(),
	}
}

// Run blocks, polling until ctx is cancelled or the connection is torn
// down. It returns nil on cancellation and the last cycle error when the
// transport is lost or the failure threshold is exceeded.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("acquisition loop started",
		"interval", p.cfg.Interval, "regions", len(Regions))

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	consecutive := 0
	for {
		snap, err := p.cycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.failures.Add(1)
			consecutive++
			p.logger.Warn("acquisition cycle failed",
				"error", err, "consecutive", consecutive)

			if !p.conn.IsConnected() {
				p.logger.Error("register connection lost, acquisition stopping")
				return fmt.Errorf("acquisition stopped: %w", err)
			}
			if p.cfg.FailureThreshold > 0 && consecutive >= p.cfg.FailureThreshold {
				p.logger.Error("acquisition failure threshold exceeded",
					"threshold", p.cfg.FailureThreshold)
				return fmt.Errorf("acquisition stopped after %d consecutive failures: %w",
					consecutive, err)
			}

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.cfg.Backoff):
			}
			continue
		}

		consecutive = 0
		p.cycles.Add(1)
		p.publish(snap)

		select {
		case <-ctx.Done():
			p.logger.Info("acquisition loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// cycle performs one full acquisition pass. All reads must succeed for a
// snapshot to be produced.
func (p *Poller) cycle(ctx context.Context) (*Snapshot, error) {
	regs, err := p.conn.ReadRegisters(ctx, RegActualAngles, JointCount)
	if err != nil {
		return nil, fmt.Errorf("read actual angles: %w", err)
	}
	actual, err := JointVectorFromRegisters(regs)
	if err != nil {
		return nil, err
	}

	grids := make([]Grid, 0, len(Regions))
	for _, region := range Regions {
		raw, err := p.conn.ReadRegisters(ctx, region.Addr, region.Count())
		if err != nil {
			return nil, fmt.Errorf("read region %s: %w", region.Name, err)
		}
		values := raw
		if region.ColumnMajor {
			values = RemapColumnMajor(raw, region.Rows, region.Cols)
		}
		grids = append(grids, Grid{Region: region, Values: values})
	}

	return &Snapshot{
		Taken:  time.Now(),
		Actual: actual,
		Grids:  grids,
	}, nil
}

func (p *Poller) publish(snap *Snapshot) {
	p.mu.Lock()
	p.latest = snap
	p.mu.Unlock()

	if p.onSnapshot != nil {
		p.onSnapshot(snap)
	}
}
