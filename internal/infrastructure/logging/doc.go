// Package logging provides structured logging for handsense.
//
// It wraps the standard library's log/slog with configuration-driven
// format and level selection plus default service attributes, so every
// component logs through the same pipeline.
package logging
