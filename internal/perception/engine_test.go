package perception

import (
	"testing"
	"time"

	"github.com/handsense/handsense-core/internal/hand"
	"github.com/handsense/handsense-core/internal/shape"
)

// emptySnapshot builds a snapshot with every region present and silent.
func emptySnapshot() *hand.Snapshot {
	snap := &hand.Snapshot{
		Taken:  time.Now(),
		Actual: hand.JointVector{1000, 1000, 1000, 1000, 1000, 1000},
	}
	for _, r := range hand.Regions {
		snap.Grids = append(snap.Grids, hand.Grid{
			Region: r,
			Values: make([]uint16, r.Count()),
		})
	}
	return snap
}

// press writes a value into the named region's grid.
func press(t *testing.T, snap *hand.Snapshot, region string, row, col int, value uint16) {
	t.Helper()
	for i, g := range snap.Grids {
		if g.Region.Name == region {
			snap.Grids[i].Values[row*g.Region.Cols+col] = value
			return
		}
	}
	t.Fatalf("region %s not in snapshot", region)
}

func TestProcessNil(t *testing.T) {
	e := NewEngine()
	if e.Process(nil) != nil {
		t.Error("Process(nil) returned a result")
	}
	if e.Latest() != nil {
		t.Error("Latest() set after nil snapshot")
	}
}

func TestProcessQuietHand(t *testing.T) {
	e := NewEngine()
	res := e.Process(emptySnapshot())

	if res.InContact {
		t.Error("quiet hand reported contact")
	}
	if res.Estimate.Kind != shape.Unknown {
		t.Errorf("Kind = %v, want Unknown", res.Estimate.Kind)
	}
	if len(res.Contacts) != 0 {
		t.Errorf("got %d contacts, want 0", len(res.Contacts))
	}
	if len(res.Analyses) != len(hand.Regions) {
		t.Errorf("got %d analyses, want %d", len(res.Analyses), len(hand.Regions))
	}
	if e.Latest() != res {
		t.Error("Latest() does not return the processed result")
	}
}

func TestProcessPalmContact(t *testing.T) {
	e := NewEngine()
	snap := emptySnapshot()
	press(t, snap, "palm", 3, 6, 500)
	press(t, snap, "palm", 3, 7, 500)
	press(t, snap, "palm", 4, 6, 500)

	res := e.Process(snap)
	if !res.InContact {
		t.Fatal("palm contact not detected")
	}
	if len(res.Contacts) != 3 {
		t.Fatalf("got %d contacts, want 3", len(res.Contacts))
	}
	for _, c := range res.Contacts {
		if c.Region != "palm" || c.Finger != "palm" {
			t.Errorf("contact labelled %s/%s", c.Finger, c.Region)
		}
		if c.Position.Z != -10 {
			t.Errorf("palm contact Z = %v, want -10", c.Position.Z)
		}
		if c.Pressure <= 0 || c.Pressure > 1 {
			t.Errorf("pressure = %v, want (0,1]", c.Pressure)
		}
	}
	if a := res.Analyses["palm"]; !a.Contact || a.ActiveCells != 3 {
		t.Errorf("palm analysis = %+v", a)
	}
}

func TestProcessFingertipContact(t *testing.T) {
	e := NewEngine()
	snap := emptySnapshot()
	press(t, snap, "index_tip", 1, 1, 800)
	press(t, snap, "index_tip", 0, 1, 800)

	res := e.Process(snap)
	if !res.InContact {
		t.Fatal("fingertip contact not detected")
	}
	for _, c := range res.Contacts {
		if c.Finger != "index" {
			t.Errorf("Finger = %s, want index", c.Finger)
		}
	}
	// The centre cell of an open index tip sits at the solved fingertip.
	tip := res.Pose.Fingers[3].Tip
	found := false
	for _, c := range res.Contacts {
		if c.Position == tip {
			found = true
		}
	}
	if !found {
		t.Error("no contact at the fingertip centre cell")
	}
}

func TestThreshold(t *testing.T) {
	e := NewEngine(WithThreshold(600))
	snap := emptySnapshot()
	press(t, snap, "palm", 2, 2, 500)
	press(t, snap, "palm", 2, 3, 500)
	press(t, snap, "palm", 2, 4, 500)

	if res := e.Process(snap); res.InContact {
		t.Error("sub-threshold cells reported contact")
	}
}

func TestResultSink(t *testing.T) {
	var got *Result
	e := NewEngine(WithResultSink(func(r *Result) { got = r }))

	res := e.Process(emptySnapshot())
	if got != res {
		t.Error("sink did not receive the processed result")
	}
}

func TestStats(t *testing.T) {
	e := NewEngine()

	e.Process(emptySnapshot())

	snap := emptySnapshot()
	press(t, snap, "palm", 1, 1, 400)
	press(t, snap, "palm", 1, 2, 400)
	e.Process(snap)

	s := e.Stats()
	if s.Processed != 2 {
		t.Errorf("Processed = %d, want 2", s.Processed)
	}
	if s.ContactCycles != 1 {
		t.Errorf("ContactCycles = %d, want 1", s.ContactCycles)
	}
}
