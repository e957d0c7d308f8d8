// Package kinematics maps joint vectors to 3D hand geometry.
//
// The model is a pure function set with no device or acquisition state.
// Each of the four non-thumb fingers is a three-segment planar chain
// anchored at a fixed base offset on the palm; the thumb is a two-segment
// chain whose bend plane is swung by the rotation joint, so its tip sweeps
// a genuinely three-dimensional arc. Units are millimetres in a hand-local
// frame: +X across the palm toward the thumb, +Y along the extended
// fingers, +Z out of the palm toward the viewer.
package kinematics
