// Package pose persists named grip presets.
//
// A preset bundles a target joint vector with the speed and force limits
// it should be applied with, so operators can recall grips like "pinch"
// or "power grip" without re-entering six sliders. Presets live in
// SQLite; applying one enqueues the joints on the command dispatcher and
// writes the limits directly.
package pose
