// Package daemon wires the queue store and workflow manager into a single
// lifecycle with flock-based locking to prevent multiple concurrent
// processing instances against the same queue database.
package daemon
