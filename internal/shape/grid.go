package shape

import "math"

// DefaultThreshold is the raw cell value below which a cell is noise.
const DefaultThreshold = 30

// pressureSpan scales raw cell values above the threshold into [0,1].
const pressureSpan = 2000.0

// minContactCells and minContactPressure gate the no-contact decision.
const (
	minContactCells    = 2
	minContactPressure = 0.05
)

// GridAnalysis is one sensor region reduced to scalar contact features.
type GridAnalysis struct {
	// Contact is false when too few cells are active or total pressure
	// is negligible; the remaining fields are zero in that case.
	Contact bool
	// ActiveCells counts cells above the threshold.
	ActiveCells int
	// TotalPressure is the sum of normalized cell pressures.
	TotalPressure float64
	// CentroidRow and CentroidCol locate the pressure-weighted centroid.
	CentroidRow float64
	CentroidCol float64
	// Curvature is positive for centre-heavy (convex) contact and
	// negative for rim-heavy (concave) contact, in [-1,1].
	Curvature float64
	// Circularity is 1 for a tight radial cluster, lower for elongated
	// contact, never negative.
	Circularity float64
	// Spread is the fraction of cells active.
	Spread float64
}

// AnalyzeGrid reduces a row-major pressure grid to contact features.
// Cells at or below threshold are ignored; pressure normalizes as
// (value-threshold)/span clamped to [0,1].
func AnalyzeGrid(values []uint16, rows, cols, threshold int) GridAnalysis {
	var a GridAnalysis

	type cell struct {
		row, col float64
		pressure float64
	}
	active := make([]cell, 0, len(values))
	for i, v := range values {
		p := CellPressure(v, threshold)
		if p == 0 {
			continue
		}
		active = append(active, cell{
			row:      float64(i / cols),
			col:      float64(i % cols),
			pressure: p,
		})
		a.TotalPressure += p
	}

	a.ActiveCells = len(active)
	a.Spread = float64(len(active)) / float64(rows*cols)
	if len(active) < minContactCells || a.TotalPressure <= minContactPressure {
		return GridAnalysis{}
	}
	a.Contact = true

	for _, c := range active {
		a.CentroidRow += c.row * c.pressure
		a.CentroidCol += c.col * c.pressure
	}
	a.CentroidRow /= a.TotalPressure
	a.CentroidCol /= a.TotalPressure

	// Centroid distances, pressure-weighted.
	dists := make([]float64, len(active))
	maxDist := 0.0
	for i, c := range active {
		dr := c.row - a.CentroidRow
		dc := c.col - a.CentroidCol
		dists[i] = math.Sqrt(dr*dr + dc*dc)
		if dists[i] > maxDist {
			maxDist = dists[i]
		}
	}

	// Curvature: mean pressure inside half the max centroid distance
	// minus mean pressure beyond it. Concentrated centres score positive.
	half := maxDist / 2
	var nearSum, farSum float64
	var nearN, farN int
	for i, c := range active {
		if dists[i] <= half {
			nearSum += c.pressure
			nearN++
		} else {
			farSum += c.pressure
			farN++
		}
	}
	var nearMean, farMean float64
	if nearN > 0 {
		nearMean = nearSum / float64(nearN)
	}
	if farN > 0 {
		farMean = farSum / float64(farN)
	}
	a.Curvature = clampF((nearMean-farMean)*3, -1, 1)

	// Circularity: inverse coefficient of variation of the weighted
	// centroid distance.
	var meanDist, varDist float64
	for i, c := range active {
		meanDist += dists[i] * c.pressure
	}
	meanDist /= a.TotalPressure
	for i, c := range active {
		d := dists[i] - meanDist
		varDist += d * d * c.pressure
	}
	varDist /= a.TotalPressure

	if meanDist > 0 {
		a.Circularity = clampF(1-math.Sqrt(varDist)/meanDist, 0, 1)
	} else {
		a.Circularity = 1
	}
	return a
}

// CellPressure normalizes one raw cell reading: zero at or below the
// threshold, rising linearly and saturating one span above it.
func CellPressure(value uint16, threshold int) float64 {
	if int(value) <= threshold {
		return 0
	}
	p := (float64(value) - float64(threshold)) / pressureSpan
	if p > 1 {
		p = 1
	}
	return p
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
