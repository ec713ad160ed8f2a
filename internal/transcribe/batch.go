package transcribe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"scribe/internal/chunking"
	"scribe/internal/logging"
)

// chunkExt names uploaded slices after the source container so the service
// can sniff the format.
func chunkExt(sourcePath string) string {
	if ext := filepath.Ext(sourcePath); ext != "" {
		return ext
	}
	return ".mp3"
}

// concurrencyFor bounds the per-batch fan-out: never more workers than
// chunks, never more than the configured maximum.
func concurrencyFor(chunkCount, maxConcurrency int) int {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	if chunkCount < maxConcurrency {
		return chunkCount
	}
	return maxConcurrency
}

// runBatches processes chunks in sequential batches of at most concurrency
// workers. Within a batch every chunk runs independently (fetch + transcribe
// with in-place retries) and writes its own indexed slot; a failing chunk
// never cancels its siblings. The next batch starts only after every
// operation in the current batch reaches a terminal state, which keeps peak
// memory for in-flight chunk buffers predictable.
func (t *Transcriber) runBatches(ctx context.Context, sourcePath, language string, specs []chunking.Spec, concurrency int) []ChunkResult {
	results := make([]ChunkResult, len(specs))
	for batchStart := 0; batchStart < len(specs); batchStart += concurrency {
		batchEnd := batchStart + concurrency
		if batchEnd > len(specs) {
			batchEnd = len(specs)
		}

		var wg sync.WaitGroup
		for _, spec := range specs[batchStart:batchEnd] {
			wg.Add(1)
			go func(spec chunking.Spec) {
				defer wg.Done()
				results[spec.Index] = t.processChunk(ctx, sourcePath, language, spec)
			}(spec)
		}
		wg.Wait()

		if ctx.Err() != nil {
			break
		}
	}
	return results
}

// processChunk takes one chunk from byte range to terminal ChunkResult.
func (t *Transcriber) processChunk(ctx context.Context, sourcePath, language string, spec chunking.Spec) ChunkResult {
	logger := logging.WithContext(ctx, t.logger).With(logging.Int(logging.FieldChunk, spec.Index))

	audio, err := chunking.Fetch(sourcePath, spec, t.minChunkBytes)
	if err != nil {
		if errors.Is(err, chunking.ErrChunkTooSmall) {
			logger.Debug("skipping sub-minimum chunk", logging.Int64("bytes", spec.Length()))
			return ChunkResult{Index: spec.Index, Skipped: true}
		}
		logger.Warn("chunk read failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "chunk_read_failed"),
			logging.String(logging.FieldErrorHint, "check the staged audio file"),
		)
		return ChunkResult{Index: spec.Index, Permanent: true, Error: err.Error()}
	}

	filename := fmt.Sprintf("chunk_%03d%s", spec.Index, chunkExt(sourcePath))
	result, permanent, err := t.transcribeWithRetry(ctx, filename, audio, language, t.maxRetries)
	if err != nil {
		logger.Warn("chunk transcription failed",
			logging.Error(err),
			logging.Bool("permanent", permanent),
			logging.String(logging.FieldEventType, "chunk_transcribe_failed"),
			logging.String(logging.FieldErrorHint, "failed chunks are absent from the merged transcript"),
		)
		return ChunkResult{Index: spec.Index, Permanent: permanent, Error: err.Error()}
	}

	logger.Debug("chunk transcribed",
		logging.Float64("duration", result.Duration),
		logging.Int("segments", len(result.Segments)),
	)
	return ChunkResult{
		Index:    spec.Index,
		Success:  true,
		Text:     result.Text,
		Segments: result.Segments,
		Duration: result.Duration,
	}
}
