// Package dispatch coalesces joint commands onto the register connection.
//
// Producers enqueue target joint vectors at whatever rate they like; a
// drain loop wakes on a fixed interval, keeps only the newest queued
// command and writes it to the device in a single multi-register write.
// Stale intermediate commands are dropped, so a fast producer can never
// back the device up. While no connection is available every drained
// command is discarded rather than buffered.
//
// Speed and force limits bypass the queue and are written immediately.
package dispatch
