package chunking

// Spec describes one contiguous byte range of the source recording. Ranges
// are half-open: [StartByte, EndByte).
type Spec struct {
	Index     int
	StartByte int64
	EndByte   int64
}

// Length returns the number of bytes the range covers.
func (s Spec) Length() int64 {
	return s.EndByte - s.StartByte
}

// Plan splits totalBytes into ordered, contiguous, non-overlapping ranges of
// at most chunkBytes each; the last range may be shorter. A non-positive
// total yields no chunks.
func Plan(totalBytes, chunkBytes int64) []Spec {
	if totalBytes <= 0 || chunkBytes <= 0 {
		return nil
	}
	count := int((totalBytes + chunkBytes - 1) / chunkBytes)
	specs := make([]Spec, 0, count)
	for start := int64(0); start < totalBytes; start += chunkBytes {
		end := start + chunkBytes
		if end > totalBytes {
			end = totalBytes
		}
		specs = append(specs, Spec{
			Index:     len(specs),
			StartByte: start,
			EndByte:   end,
		})
	}
	return specs
}
