// Package chunking plans byte-range chunks over a recording and reads the
// planned ranges back as upload slices.
package chunking
