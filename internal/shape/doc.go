// Package shape infers what the hand is holding from tactile pressure.
//
// Per-grid analysis reduces each sensor region to a handful of scalar
// features: active cell count, total normalized pressure, a curvature
// score (convex vs rim contact) and a circularity score (compact vs
// elongated). Whole-hand classification then weighs the palm and digit
// features through a fixed decision ladder; the first matching grip
// pattern wins and carries a bounded confidence.
package shape
