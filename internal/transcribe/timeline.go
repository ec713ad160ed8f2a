package transcribe

// ReconcileTimeline merges per-chunk segments into one absolute timeline. A
// running offset accumulates each successful chunk's service-reported
// duration; segment timestamps shift by the offset at the time their chunk is
// processed. The reported duration is used rather than the max segment end
// because segment ends undercount trailing silence, and rather than a
// byte-derived estimate because chunk boundaries rarely align with audio
// frames. Skipped and failed chunks contribute no offset, which leaves a
// silent gap in the timeline at their position.
func ReconcileTimeline(results []ChunkResult) ([]GlobalSegment, float64) {
	var segments []GlobalSegment
	var offset float64
	for _, chunk := range results {
		if !chunk.Success {
			continue
		}
		for _, seg := range chunk.Segments {
			segments = append(segments, GlobalSegment{
				Text:        seg.Text,
				Start:       offset + seg.Start,
				End:         offset + seg.End,
				SourceChunk: chunk.Index,
			})
		}
		offset += chunk.Duration
	}
	return segments, offset
}
