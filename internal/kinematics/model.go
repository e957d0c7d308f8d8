package kinematics

import (
	"math"

	"github.com/handsense/handsense-core/internal/hand"
)

// Finger base offsets on the palm, millimetres. Index order matches the
// joint vector's first five entries (thumb shares one base for both
// thumb joints).
var fingerBases = [5]Vec3{
	{X: -27, Y: 40, Z: 0}, // pinky
	{X: -9, Y: 45, Z: 0},  // ring
	{X: 9, Y: 47, Z: 0},   // middle
	{X: 27, Y: 45, Z: 0},  // index
	{X: 45, Y: 10, Z: 0},  // thumb
}

// palmCenter is the fixed palm reference point.
var palmCenter = Vec3{X: 0, Y: 0, Z: -10}

// Non-thumb finger segment lengths, proximal to distal, millimetres.
var segmentLengths = [3]float64{32, 22, 18}

// Per-segment bend multipliers: the middle phalanx bends slightly more
// than the proximal and the distal noticeably less.
var bendFactors = [3]float64{1.0, 1.1, 0.7}

// maxCurl is the proximal joint's full-flexion angle.
const maxCurl = math.Pi / 2

// Thumb chain constants.
const (
	thumbProximalLen = 40
	thumbDistalLen   = 30
	thumbDistalBend  = 0.8
	thumbMaxCurl     = 1.2
	thumbRotOffset   = 0.3
	thumbRotScale    = 1.2
	padLerp          = 0.55
)

// FingerPose is one digit's solved tip and pad position.
type FingerPose struct {
	Tip Vec3 `json:"tip"`
	Pad Vec3 `json:"pad"`
}

// Dir is the digit's local pointing direction, normalize(tip - pad).
func (f FingerPose) Dir() Vec3 {
	return f.Tip.Sub(f.Pad).Normalize()
}

// HandPose is the full solved hand geometry for one joint vector.
type HandPose struct {
	Fingers [5]FingerPose `json:"fingers"`
	Palm    Vec3          `json:"palm"`
}

// bendFromValue converts a joint value to a bend factor: 1000 (open) maps
// to 0, 0 (closed) maps to 1. Out-of-range values are clamped.
func bendFromValue(v int) float64 {
	b := 1 - float64(v)/1000
	if b < 0 {
		return 0
	}
	if b > 1 {
		return 1
	}
	return b
}

// chain solves a rotated planar segment chain anchored at base. The bend
// plane is spanned by u (straight direction) and w (curl direction);
// angles accumulate down the chain.
func chain(base, u, w Vec3, lengths, factors []float64, baseAngle float64) Vec3 {
	pos := base
	theta := 0.0
	for i, l := range lengths {
		theta += factors[i] * baseAngle
		step := u.Scale(l * math.Cos(theta)).Add(w.Scale(l * math.Sin(theta)))
		pos = pos.Add(step)
	}
	return pos
}

// Solve computes the full hand pose for a joint vector. Pure and
// allocation-free aside from the returned value.
func Solve(v hand.JointVector) HandPose {
	var pose HandPose

	// Four planar fingers curl from +Y toward -Z.
	u := Vec3{Y: 1}
	w := Vec3{Z: -1}
	for f := 0; f < 4; f++ {
		angle := bendFromValue(v[f]) * maxCurl
		tip := chain(fingerBases[f], u, w, segmentLengths[:], bendFactors[:], angle)
		pose.Fingers[f] = FingerPose{
			Tip: tip,
			Pad: fingerBases[f].Lerp(tip, padLerp),
		}
	}

	// The thumb's bend plane is swung about Z by the rotation joint, so
	// its two-segment chain is not confined to a fixed plane.
	rot := thumbRotOffset + thumbRotScale*bendFromValue(v[hand.JointThumbRotation])
	tu := Vec3{X: math.Cos(rot), Y: math.Sin(rot)}
	tw := Vec3{Z: -1}
	bend := bendFromValue(v[hand.JointThumbBend]) * thumbMaxCurl
	tip := chain(fingerBases[4], tu, tw,
		[]float64{thumbProximalLen, thumbDistalLen},
		[]float64{1, thumbDistalBend}, bend)
	pose.Fingers[4] = FingerPose{
		Tip: tip,
		Pad: fingerBases[4].Lerp(tip, padLerp),
	}

	pose.Palm = palmCenter
	return pose
}

// cellPitch is the sensor cell spacing used when projecting grids,
// millimetres.
const cellPitch = 2.0

// frame builds an orthonormal basis around a pointing direction. t1 and
// t2 span the plane the sensor grid lies in.
func frame(dir Vec3) (t1, t2 Vec3) {
	ref := Vec3{Z: 1}
	if math.Abs(dir.Dot(ref)) > 0.99 {
		ref = Vec3{Y: 1}
	}
	t1 = dir.Cross(ref).Normalize()
	t2 = dir.Cross(t1)
	return t1, t2
}

// ContactPoint projects one sensor cell into 3D using the solved pose.
// Tip grids anchor at the fingertip, pad and nail grids at the pad, and
// the palm grid lies flat across the palm plane.
func ContactPoint(region hand.Region, row, col int, pose HandPose) Vec3 {
	dr := (float64(row) - float64(region.Rows-1)/2) * cellPitch
	dc := (float64(col) - float64(region.Cols-1)/2) * cellPitch

	if region.Kind == hand.KindPalm {
		return pose.Palm.Add(Vec3{X: dc, Y: -dr})
	}

	fp := pose.Fingers[fingerIndex(region.Finger)]
	anchor := fp.Pad
	if region.Kind == hand.KindTip {
		anchor = fp.Tip
	}
	t1, t2 := frame(fp.Dir())
	return anchor.Add(t1.Scale(dc)).Add(t2.Scale(dr))
}

func fingerIndex(f hand.Finger) int {
	switch f {
	case hand.FingerPinky:
		return 0
	case hand.FingerRing:
		return 1
	case hand.FingerMiddle:
		return 2
	case hand.FingerIndex:
		return 3
	default:
		return 4
	}
}
