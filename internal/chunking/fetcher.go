package chunking

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrChunkTooSmall marks a range below the minimum viable size. The caller
// skips transcription for the slice; it is not a failure.
var ErrChunkTooSmall = errors.New("chunk below minimum size")

// Fetch reads exactly the bytes of the spec's range from the file at path.
// Ranges shorter than minBytes return ErrChunkTooSmall: sub-frame audio
// fragments reliably produce malformed-audio errors upstream. Only the
// requested range is held in memory.
func Fetch(path string, spec Spec, minBytes int64) ([]byte, error) {
	length := spec.Length()
	if length <= 0 {
		return nil, fmt.Errorf("chunk %d: invalid range [%d, %d)", spec.Index, spec.StartByte, spec.EndByte)
	}
	if length < minBytes {
		return nil, fmt.Errorf("chunk %d: %d bytes: %w", spec.Index, length, ErrChunkTooSmall)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: open source: %w", spec.Index, err)
	}
	defer file.Close()

	buf := make([]byte, length)
	n, err := file.ReadAt(buf, spec.StartByte)
	if int64(n) != length {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("chunk %d: read range [%d, %d): %w", spec.Index, spec.StartByte, spec.EndByte, err)
	}
	return buf, nil
}
