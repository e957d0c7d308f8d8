// Package hand describes the dexterous hand's register layout and owns the
// tactile acquisition loop.
//
// The device exposes everything as 16-bit holding registers: six joint
// command/actual/speed/force registers and sixteen tactile sensor regions
// laid out as fixed-size pressure grids. The Poller reads the actual joint
// angles and every sensor region each cycle and publishes an immutable
// Snapshot to consumers.
//
// Joint order follows the device manual: pinky, ring, middle, index, thumb
// bend, thumb rotation. 1000 is fully open/extended, 0 fully closed.
package hand
