package hand

import "testing"

func TestRegionsContiguous(t *testing.T) {
	// The sensor blocks pack back to back from the tactile base address.
	next := uint16(3000)
	for _, r := range Regions {
		if r.Addr != next {
			t.Errorf("region %s at %d, expected %d", r.Name, r.Addr, next)
		}
		next += uint16(r.Count())
	}
}

func TestRegionsShape(t *testing.T) {
	palm, ok := RegionByName("palm")
	if !ok {
		t.Fatal("palm region missing")
	}
	if palm.Rows != 8 || palm.Cols != 14 {
		t.Errorf("palm is %dx%d, want 8x14", palm.Rows, palm.Cols)
	}
	if !palm.ColumnMajor {
		t.Error("palm must be flagged column-major")
	}

	for _, r := range Regions {
		if r.Name != "palm" && r.ColumnMajor {
			t.Errorf("region %s flagged column-major", r.Name)
		}
		if r.Kind == KindTip && (r.Rows != 3 || r.Cols != 3) {
			t.Errorf("tip region %s is %dx%d, want 3x3", r.Name, r.Rows, r.Cols)
		}
	}

	if _, ok := RegionByName("elbow"); ok {
		t.Error("unexpected region lookup hit")
	}
}

func TestRemapColumnMajor(t *testing.T) {
	// 2x3 grid stored column-major: columns (1,4) (2,5) (3,6).
	raw := []uint16{1, 4, 2, 5, 3, 6}
	got := RemapColumnMajor(raw, 2, 3)
	want := []uint16{1, 2, 3, 4, 5, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cell %d: got %d, want %d (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestRemapColumnMajorPalmSized(t *testing.T) {
	const rows, cols = 8, 14
	raw := make([]uint16, rows*cols)
	for i := range raw {
		raw[i] = uint16(i)
	}

	got := RemapColumnMajor(raw, rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			// Wire cell (c,r) in column order lands at row-major (r,c).
			want := uint16(c*rows + r)
			if got[r*cols+c] != want {
				t.Fatalf("(%d,%d): got %d, want %d", r, c, got[r*cols+c], want)
			}
		}
	}

	// Every input value appears exactly once.
	seen := make(map[uint16]bool, len(got))
	for _, v := range got {
		if seen[v] {
			t.Fatalf("value %d duplicated in remap output", v)
		}
		seen[v] = true
	}
}

func TestGridAccessors(t *testing.T) {
	region, _ := RegionByName("pinky_tip")
	g := Grid{Region: region, Values: []uint16{0, 1, 2, 3, 4, 5, 6, 7, 8}}

	if got := g.At(1, 2); got != 5 {
		t.Errorf("At(1,2) = %d, want 5", got)
	}
	if got := g.TotalPressure(); got != 36 {
		t.Errorf("TotalPressure = %d, want 36", got)
	}
}
