package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/handsense/handsense-core/internal/hand"
)

// Logger is the subset of the application logger the listener needs.
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

// Enqueuer receives coerced joint vectors from tracking frames.
type Enqueuer interface {
	Enqueue(hand.JointVector)
}

// Landmark is one raw tracker landmark in normalized camera coordinates.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// frame is the tracker's wire format, one JSON object per datagram.
type frame struct {
	Detected  bool       `json:"detected"`
	Angles    []float64  `json:"angles"`
	Landmarks []Landmark `json:"landmarks"`
}

// Stats are cumulative ingest counters.
type Stats struct {
	Received  uint64
	Malformed uint64
	Applied   uint64
}

// Listener receives tracking frames and forwards detected poses to the
// dispatcher. Safe for concurrent readers of the tracked state.
type Listener struct {
	addr   string
	sink   Enqueuer
	logger Logger

	mu        sync.RWMutex
	detected  bool
	tracked   hand.JointVector
	landmarks []Landmark

	received  atomic.Uint64
	malformed atomic.Uint64
	applied   atomic.Uint64
}

// NewListener builds a listener bound to addr (host:port) feeding sink.
func NewListener(addr string, sink Enqueuer) *Listener {
	return &Listener{addr: addr, sink: sink, logger: nopLogger{}}
}

// SetLogger replaces the listener's logger.
func (l *Listener) SetLogger(lg Logger) {
	if lg != nil {
		l.logger = lg
	}
}

// Tracked returns the latest tracked joint vector and whether the tracker
// currently reports a detected hand.
func (l *Listener) Tracked() (hand.JointVector, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tracked, l.detected
}

// Landmarks returns a copy of the latest landmark cloud.
func (l *Listener) Landmarks() []Landmark {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Landmark, len(l.landmarks))
	copy(out, l.landmarks)
	return out
}

// Stats returns cumulative ingest counters.
func (l *Listener) Stats() Stats {
	return Stats{
		Received:  l.received.Load(),
		Malformed: l.malformed.Load(),
		Applied:   l.applied.Load(),
	}
}

// Run binds the UDP socket and processes datagrams until ctx is
// cancelled. Returns nil on cancellation.
func (l *Listener) Run(ctx context.Context) error {
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp", l.addr)
	if err != nil {
		return fmt.Errorf("bind tracking socket %s: %w", l.addr, err)
	}

	go func() {
		<-ctx.Done()
		pc.Close()
	}()

	l.logger.Info("tracking listener started", "addr", l.addr)

	buf := make([]byte, 64*1024)
	for {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("tracking listener stopped")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.logger.Warn("tracking read failed", "error", err)
			continue
		}
		l.received.Add(1)
		l.handle(buf[:n])
	}
}

// handle parses one datagram and updates state. Unparseable frames are
// dropped; within a parsed frame each field is applied independently.
func (l *Listener) handle(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		l.malformed.Add(1)
		l.logger.Debug("malformed tracking frame", "error", err)
		return
	}

	if !f.Detected {
		l.mu.Lock()
		l.detected = false
		l.mu.Unlock()
		return
	}

	l.mu.Lock()
	l.detected = true
	l.landmarks = append(l.landmarks[:0], f.Landmarks...)
	l.mu.Unlock()

	// A bad angle array spoils only the joint update; the landmark
	// cloud above is already applied.
	if len(f.Angles) != hand.JointCount {
		l.malformed.Add(1)
		l.logger.Debug("tracking frame with bad angle count", "count", len(f.Angles))
		return
	}

	var v hand.JointVector
	for i, a := range f.Angles {
		v[i] = int(a)
	}
	v = v.ClampAngles()

	l.mu.Lock()
	l.tracked = v
	l.mu.Unlock()

	if l.sink != nil {
		l.sink.Enqueue(v)
		l.applied.Add(1)
	}
}
