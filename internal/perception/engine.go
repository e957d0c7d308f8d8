package perception

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/handsense/handsense-core/internal/hand"
	"github.com/handsense/handsense-core/internal/kinematics"
	"github.com/handsense/handsense-core/internal/shape"
)

// Logger is the subset of the application logger the engine needs.
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

// Result is one snapshot fully interpreted. Immutable once returned.
type Result struct {
	Taken     time.Time                     `json:"taken"`
	Actual    hand.JointVector              `json:"actual"`
	Pose      kinematics.HandPose           `json:"pose"`
	Analyses  map[string]shape.GridAnalysis `json:"analyses"`
	Contacts  []shape.ContactPoint          `json:"contacts"`
	Estimate  shape.Estimate                `json:"estimate"`
	InContact bool                          `json:"in_contact"`
}

// Stats are cumulative processing counters.
type Stats struct {
	Processed     uint64
	ContactCycles uint64
}

// Engine interprets tactile snapshots. Safe for one writer (the poller
// callback) and any number of Latest readers.
type Engine struct {
	threshold int
	logger    Logger
	onResult  func(*Result)

	mu     sync.RWMutex
	latest *Result

	processed     atomic.Uint64
	contactCycles atomic.Uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreshold overrides the contact detection threshold, in raw
// pressure units.
func WithThreshold(t int) Option {
	return func(e *Engine) { e.threshold = t }
}

// WithLogger sets the engine logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithResultSink registers a callback invoked synchronously with every
// processed result. The callback must not block the acquisition cycle.
func WithResultSink(fn func(*Result)) Option {
	return func(e *Engine) { e.onResult = fn }
}

// NewEngine builds an engine with the default threshold.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		threshold: shape.DefaultThreshold,
		logger:    nopLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process interprets one snapshot and publishes it as the latest result.
func (e *Engine) Process(snap *hand.Snapshot) *Result {
	if snap == nil {
		return nil
	}

	pose := kinematics.Solve(snap.Actual)

	res := &Result{
		Taken:    snap.Taken,
		Actual:   snap.Actual,
		Pose:     pose,
		Analyses: make(map[string]shape.GridAnalysis, len(snap.Grids)),
	}

	samples := make([]shape.RegionSample, 0, len(snap.Grids))
	for _, g := range snap.Grids {
		analysis := shape.AnalyzeGrid(g.Values, g.Region.Rows, g.Region.Cols, e.threshold)
		res.Analyses[g.Region.Name] = analysis
		samples = append(samples, shape.RegionSample{Region: g.Region, Analysis: analysis})
		if !analysis.Contact {
			continue
		}
		res.InContact = true
		res.Contacts = append(res.Contacts, e.projectCells(g, pose)...)
	}

	res.Estimate = shape.Classify(samples, snap.Actual, res.Contacts)

	e.processed.Add(1)
	if res.InContact {
		e.contactCycles.Add(1)
	}

	e.mu.Lock()
	prev := e.latest
	e.latest = res
	e.mu.Unlock()

	if prev == nil || prev.Estimate.Kind != res.Estimate.Kind {
		e.logger.Debug("shape estimate changed",
			"kind", res.Estimate.Kind.String(),
			"confidence", res.Estimate.Confidence,
			"contacts", len(res.Contacts))
	}

	if e.onResult != nil {
		e.onResult(res)
	}
	return res
}

// projectCells lifts every pressed cell of a contacting region into 3D.
func (e *Engine) projectCells(g hand.Grid, pose kinematics.HandPose) []shape.ContactPoint {
	var pts []shape.ContactPoint
	for r := 0; r < g.Region.Rows; r++ {
		for c := 0; c < g.Region.Cols; c++ {
			p := shape.CellPressure(g.At(r, c), e.threshold)
			if p == 0 {
				continue
			}
			pts = append(pts, shape.ContactPoint{
				Position: kinematics.ContactPoint(g.Region, r, c, pose),
				Pressure: p,
				Finger:   g.Region.Finger.String(),
				Region:   g.Region.Name,
			})
		}
	}
	return pts
}

// Latest returns the most recent result, or nil before the first cycle.
func (e *Engine) Latest() *Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}

// Stats returns cumulative processing counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Processed:     e.processed.Load(),
		ContactCycles: e.contactCycles.Load(),
	}
}
