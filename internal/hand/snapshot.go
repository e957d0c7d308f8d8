package hand

import "time"

// Grid is one region's pressure readings in row-major order.
type Grid struct {
	Region Region
	Values []uint16
}

// At returns the cell at row r, column c.
func (g Grid) At(r, c int) uint16 {
	return g.Values[r*g.Region.Cols+c]
}

// TotalPressure sums every cell in the grid.
func (g Grid) TotalPressure() uint64 {
	var sum uint64
	for _, v := range g.Values {
		sum += uint64(v)
	}
	return sum
}

// Snapshot is one complete acquisition cycle: the measured joint angles and
// every sensor region, all read back to back. Snapshots are immutable once
// published; consumers may hold them indefinitely.
type Snapshot struct {
	Taken  time.Time
	Actual JointVector
	Grids  []Grid
}

// Grid returns the named region's readings from the snapshot.
func (s *Snapshot) Grid(name string) (Grid, bool) {
	for _, g := range s.Grids {
		if g.Region.Name == name {
			return g, true
		}
	}
	return Grid{}, false
}
