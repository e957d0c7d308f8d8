// Package database provides the SQLite persistence layer.
//
// handsense persists pose presets (named grips with their speed and
// force limits) in a single SQLite file. The package wraps database/sql
// with lifecycle management, WAL-mode setup, health checks, and an
// embedded-filesystem migration runner. Migration files are compiled into
// the binary by the top-level migrations package.
//
// SQLite serves well here: a single writer, a handful of presets, no
// server to operate alongside the hand controller.
package database
