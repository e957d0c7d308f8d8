package shape

import (
	"testing"

	"github.com/handsense/handsense-core/internal/hand"
	"github.com/handsense/handsense-core/internal/kinematics"
)

// samplesFromGrids analyzes named grids against the classifier's region
// set; regions not named get zero grids.
func samplesFromGrids(t *testing.T, grids map[string][]uint16) []RegionSample {
	t.Helper()
	var samples []RegionSample
	for _, r := range hand.Regions {
		if r.Kind == hand.KindNail {
			continue
		}
		values, ok := grids[r.Name]
		if !ok {
			values = make([]uint16, r.Count())
		}
		if len(values) != r.Count() {
			t.Fatalf("grid %s has %d cells, want %d", r.Name, len(values), r.Count())
		}
		samples = append(samples, RegionSample{
			Region:   r,
			Analysis: AnalyzeGrid(values, r.Rows, r.Cols, DefaultThreshold),
		})
	}
	return samples
}

func regionNamed(t *testing.T, name string) hand.Region {
	t.Helper()
	for _, r := range hand.Regions {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no region named %s", name)
	return hand.Region{}
}

func TestClassifyAllZeroIsUnknown(t *testing.T) {
	samples := samplesFromGrids(t, nil)
	est := Classify(samples, hand.JointVector{1000, 1000, 1000, 1000, 1000, 1000}, nil)

	if est.Kind != Unknown {
		t.Errorf("kind = %v, want unknown", est.Kind)
	}
	if est.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", est.Confidence)
	}
}

func TestClassifySphere(t *testing.T) {
	// Centre-heavy palm, one fingertip contact, fingers partially closed.
	grids := map[string][]uint16{
		"palm": grid(8, 14, map[[2]int]uint16{
			{3, 6}: 2000,
			{3, 7}: 500,
			{4, 6}: 500,
			{2, 6}: 500,
			{3, 5}: 500,
		}),
		"index_tip": grid(3, 3, map[[2]int]uint16{{0, 0}: 200, {1, 1}: 200}),
	}
	samples := samplesFromGrids(t, grids)
	actual := hand.JointVector{600, 600, 600, 600, 600, 600}

	est := Classify(samples, actual, nil)
	if est.Kind != Sphere {
		t.Fatalf("kind = %v, want sphere", est.Kind)
	}
	if est.Confidence <= 0.3 {
		t.Errorf("confidence = %f, want > 0.3", est.Confidence)
	}
	if est.Confidence > 0.95 {
		t.Errorf("confidence = %f above ceiling", est.Confidence)
	}
}

func TestClassifyIgnoresNailContacts(t *testing.T) {
	// One palm contact plus a pressed nail grid with straight fingers.
	// Nail grids never count toward the two-region contact gate, so a
	// single classified contact stays Unknown.
	samples := samplesFromGrids(t, map[string][]uint16{
		"palm": grid(8, 14, map[[2]int]uint16{
			{3, 6}: 2000,
			{3, 7}: 500,
			{4, 6}: 500,
		}),
	})
	nail := regionNamed(t, "index_nail")
	nailGrid := grid(12, 8, map[[2]int]uint16{{5, 3}: 900, {6, 3}: 900, {5, 4}: 900})
	samples = append(samples, RegionSample{
		Region:   nail,
		Analysis: AnalyzeGrid(nailGrid, nail.Rows, nail.Cols, DefaultThreshold),
	})

	est := Classify(samples, hand.JointVector{1000, 1000, 1000, 1000, 1000, 1000}, nil)
	if est.Kind != Unknown {
		t.Errorf("kind = %v, want unknown", est.Kind)
	}
}

func TestClassifyCylinder(t *testing.T) {
	// Elongated palm ridge with two pad contacts; closure 0.2 is too low
	// for the sphere rung.
	palm := GridAnalysis{Contact: true, Curvature: 0.3, Circularity: 0.2, Spread: 0.3, TotalPressure: 2}
	pad := GridAnalysis{Contact: true, Curvature: 0.1, Circularity: 0.6, TotalPressure: 0.5}
	samples := []RegionSample{
		{Region: regionNamed(t, "palm"), Analysis: palm},
		{Region: regionNamed(t, "index_pad"), Analysis: pad},
		{Region: regionNamed(t, "middle_pad"), Analysis: pad},
	}
	actual := hand.JointVector{800, 800, 800, 800, 800, 800}

	est := Classify(samples, actual, nil)
	if est.Kind != Cylinder {
		t.Fatalf("kind = %v, want cylinder", est.Kind)
	}
	want := 0.4 + 0.2*palm.Curvature + 0.2*(1-palm.Circularity) + 0.2*(2.0/4)
	if est.Confidence < want-1e-9 || est.Confidence > want+1e-9 {
		t.Errorf("confidence = %f, want %f", est.Confidence, want)
	}
}

func TestClassifyReportsMetrics(t *testing.T) {
	grids := map[string][]uint16{
		"palm": grid(8, 14, map[[2]int]uint16{
			{3, 6}: 2000,
			{3, 7}: 500,
			{4, 6}: 500,
			{2, 6}: 500,
			{3, 5}: 500,
		}),
		"index_tip": grid(3, 3, map[[2]int]uint16{{0, 0}: 200, {1, 1}: 200}),
	}
	samples := samplesFromGrids(t, grids)

	est := Classify(samples, hand.JointVector{600, 600, 600, 600, 600, 600}, nil)
	for _, k := range []string{"curvature", "circularity", "closure", "spread"} {
		if _, ok := est.Metrics[k]; !ok {
			t.Errorf("metrics missing %q: %v", k, est.Metrics)
		}
	}
	if c := est.Metrics["closure"]; c < 0.4-1e-9 || c > 0.4+1e-9 {
		t.Errorf("closure metric = %f, want 0.4", c)
	}
	// Centre-heavy palm dominates the weighted curvature mean.
	if est.Metrics["curvature"] <= 0 {
		t.Errorf("curvature metric = %f, want positive", est.Metrics["curvature"])
	}
}

func TestClassifyFlat(t *testing.T) {
	// Uniform palm pressure: no curvature, full spread, open hand.
	uniform := make([]uint16, 8*14)
	for i := range uniform {
		uniform[i] = 300
	}
	samples := samplesFromGrids(t, map[string][]uint16{"palm": uniform})

	est := Classify(samples, hand.JointVector{1000, 1000, 1000, 1000, 1000, 1000}, nil)
	if est.Kind != Flat {
		t.Fatalf("kind = %v, want flat", est.Kind)
	}
	if est.Confidence > 0.9 {
		t.Errorf("confidence = %f above flat ceiling", est.Confidence)
	}
}

func TestClassifyRod(t *testing.T) {
	// Two fingertip contacts, no palm pressure, fingers well closed.
	tip := grid(3, 3, map[[2]int]uint16{{1, 0}: 600, {1, 2}: 600})
	grids := map[string][]uint16{
		"index_tip":  tip,
		"middle_tip": tip,
	}
	samples := samplesFromGrids(t, grids)
	actual := hand.JointVector{200, 200, 200, 200, 200, 200}

	est := Classify(samples, actual, nil)
	if est.Kind != Rod {
		t.Fatalf("kind = %v, want rod", est.Kind)
	}
}

func TestClassifyBox(t *testing.T) {
	// Three pad contacts at moderate closure, no palm involvement past
	// the rod gate (no tip contacts at all).
	pad := grid(10, 8, map[[2]int]uint16{{4, 3}: 500, {5, 4}: 500, {4, 4}: 500})
	grids := map[string][]uint16{
		"index_pad":  pad,
		"middle_pad": pad,
		"ring_pad":   pad,
	}
	samples := samplesFromGrids(t, grids)
	actual := hand.JointVector{600, 600, 600, 600, 600, 600}

	est := Classify(samples, actual, nil)
	if est.Kind != Box {
		t.Fatalf("kind = %v, want box", est.Kind)
	}
	want := 0.4 + 0.08*3
	if est.Confidence < want-1e-9 || est.Confidence > want+1e-9 {
		t.Errorf("confidence = %f, want %f", est.Confidence, want)
	}
}

func TestClassifyIrregularFallthrough(t *testing.T) {
	// Two pad contacts with the hand nearly open: no ladder branch fits.
	pad := grid(10, 8, map[[2]int]uint16{{4, 3}: 500, {5, 4}: 500})
	grids := map[string][]uint16{
		"index_pad":  pad,
		"middle_pad": pad,
	}
	samples := samplesFromGrids(t, grids)
	actual := hand.JointVector{950, 950, 950, 950, 950, 950}

	est := Classify(samples, actual, nil)
	if est.Kind != Irregular {
		t.Fatalf("kind = %v, want irregular", est.Kind)
	}
}

func TestClassifyContactGeometry(t *testing.T) {
	samples := samplesFromGrids(t, nil)
	contacts := []ContactPoint{
		{Position: kinematics.Vec3{X: 0, Y: 0, Z: 0}, Pressure: 1},
		{Position: kinematics.Vec3{X: 10, Y: 0, Z: 0}, Pressure: 1},
		{Position: kinematics.Vec3{X: 0, Y: 10, Z: 0}, Pressure: 2},
	}

	est := Classify(samples, hand.JointVector{}, contacts)
	if est.Extent.X != 10 || est.Extent.Y != 10 || est.Extent.Z != 0 {
		t.Errorf("extent = %+v, want (10,10,0)", est.Extent)
	}
	// Pressure-weighted centroid pulls toward the heavy point.
	if est.Centroid.Y <= est.Centroid.X {
		t.Errorf("centroid = %+v, want Y pull from double-pressure point", est.Centroid)
	}
	if est.Radius <= 0 {
		t.Errorf("radius = %f, want positive default from extent", est.Radius)
	}
}

func TestClassifyFewContactsNoGeometry(t *testing.T) {
	samples := samplesFromGrids(t, nil)
	contacts := []ContactPoint{
		{Position: kinematics.Vec3{X: 5}, Pressure: 1},
		{Position: kinematics.Vec3{X: 9}, Pressure: 1},
	}

	est := Classify(samples, hand.JointVector{}, contacts)
	if est.Centroid != (kinematics.Vec3{}) || est.Extent != (kinematics.Vec3{}) {
		t.Errorf("geometry computed from %d contacts: %+v", len(contacts), est)
	}
}
