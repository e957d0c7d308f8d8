package shape

import "testing"

// grid builds a rows x cols zero grid with the given cells set.
func grid(rows, cols int, cells map[[2]int]uint16) []uint16 {
	g := make([]uint16, rows*cols)
	for rc, v := range cells {
		g[rc[0]*cols+rc[1]] = v
	}
	return g
}

func TestAnalyzeGridNoContact(t *testing.T) {
	tests := []struct {
		name  string
		cells map[[2]int]uint16
	}{
		{name: "all zero", cells: nil},
		{name: "all below threshold", cells: map[[2]int]uint16{{0, 0}: 30, {1, 1}: 10}},
		{name: "single active cell", cells: map[[2]int]uint16{{2, 2}: 900}},
		{name: "two cells but negligible pressure", cells: map[[2]int]uint16{{0, 0}: 55, {4, 4}: 55}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnalyzeGrid(grid(5, 5, tt.cells), 5, 5, DefaultThreshold)
			if a.Contact {
				t.Errorf("unexpected contact: %+v", a)
			}
			if a.TotalPressure != 0 || a.Curvature != 0 {
				t.Errorf("no-contact result not zeroed: %+v", a)
			}
		})
	}
}

func TestAnalyzeGridCentreHeavyIsConvex(t *testing.T) {
	g := grid(8, 14, map[[2]int]uint16{
		{3, 6}: 2000,
		{3, 7}: 500,
		{4, 6}: 500,
		{2, 6}: 500,
		{3, 5}: 500,
	})
	a := AnalyzeGrid(g, 8, 14, DefaultThreshold)

	if !a.Contact {
		t.Fatal("expected contact")
	}
	if a.Curvature <= 0.15 {
		t.Errorf("centre-heavy curvature = %f, want strongly positive", a.Curvature)
	}
	if a.ActiveCells != 5 {
		t.Errorf("active cells = %d, want 5", a.ActiveCells)
	}
	// Centroid sits on the dominant cell by symmetry.
	if a.CentroidRow < 2.9 || a.CentroidRow > 3.1 || a.CentroidCol < 5.9 || a.CentroidCol > 6.1 {
		t.Errorf("centroid = (%f,%f), want near (3,6)", a.CentroidRow, a.CentroidCol)
	}
}

func TestAnalyzeGridRimHeavyIsConcave(t *testing.T) {
	g := grid(5, 5, map[[2]int]uint16{
		{2, 2}: 100,
		{0, 2}: 1000,
		{4, 2}: 1000,
		{2, 0}: 1000,
		{2, 4}: 1000,
	})
	a := AnalyzeGrid(g, 5, 5, DefaultThreshold)

	if !a.Contact {
		t.Fatal("expected contact")
	}
	if a.Curvature >= 0 {
		t.Errorf("rim-heavy curvature = %f, want negative", a.Curvature)
	}
}

func TestAnalyzeGridCircularity(t *testing.T) {
	// A symmetric ring around the centroid has near-uniform centroid
	// distance, so circularity stays high.
	ring := grid(7, 7, map[[2]int]uint16{
		{1, 3}: 800, {5, 3}: 800, {3, 1}: 800, {3, 5}: 800,
	})
	// A straight line is maximally elongated.
	line := grid(7, 7, map[[2]int]uint16{
		{3, 0}: 800, {3, 1}: 800, {3, 2}: 800, {3, 3}: 800,
		{3, 4}: 800, {3, 5}: 800, {3, 6}: 800,
	})

	ringA := AnalyzeGrid(ring, 7, 7, DefaultThreshold)
	lineA := AnalyzeGrid(line, 7, 7, DefaultThreshold)
	if !ringA.Contact || !lineA.Contact {
		t.Fatal("expected contact in both grids")
	}
	if ringA.Circularity <= lineA.Circularity {
		t.Errorf("ring circularity %f not above line circularity %f",
			ringA.Circularity, lineA.Circularity)
	}
	if ringA.Circularity < 0.9 {
		t.Errorf("symmetric ring circularity = %f, want near 1", ringA.Circularity)
	}
}

func TestAnalyzeGridRowFlipInvariant(t *testing.T) {
	// The metrics are defined on centroid distances only, so flipping the
	// row order of a symmetric pattern must not change them.
	cells := map[[2]int]uint16{
		{1, 3}: 900, {3, 3}: 2000, {5, 3}: 900,
		{3, 1}: 400, {3, 5}: 400,
	}
	rows, cols := 7, 7
	g := grid(rows, cols, cells)

	flipped := make(map[[2]int]uint16, len(cells))
	for rc, v := range cells {
		flipped[[2]int{rows - 1 - rc[0], rc[1]}] = v
	}
	gf := grid(rows, cols, flipped)

	a := AnalyzeGrid(g, rows, cols, DefaultThreshold)
	af := AnalyzeGrid(gf, rows, cols, DefaultThreshold)

	if !a.Contact || !af.Contact {
		t.Fatal("expected contact in both orientations")
	}
	if diff := a.Curvature - af.Curvature; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("curvature changed under row flip: %f vs %f", a.Curvature, af.Curvature)
	}
	if diff := a.Circularity - af.Circularity; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("circularity changed under row flip: %f vs %f", a.Circularity, af.Circularity)
	}
}

func TestAnalyzeGridPressureClamped(t *testing.T) {
	g := grid(3, 3, map[[2]int]uint16{{0, 0}: 65535, {2, 2}: 65535})
	a := AnalyzeGrid(g, 3, 3, DefaultThreshold)
	if !a.Contact {
		t.Fatal("expected contact")
	}
	if a.TotalPressure > 2.000001 {
		t.Errorf("cell pressures not clamped to 1: total = %f", a.TotalPressure)
	}
}
