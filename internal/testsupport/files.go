package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path with exactly size bytes of filler audio data,
// making parent directories as needed. Sizes below one are rounded up to
// a single byte so the file always exists on disk.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size < 1 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}

	block := bytes.Repeat([]byte{0xA7}, 64*1024)
	for written := int64(0); written < size; {
		n := size - written
		if n > int64(len(block)) {
			n = int64(len(block))
		}
		if _, err := f.Write(block[:n]); err != nil {
			f.Close()
			t.Fatalf("write %s: %v", path, err)
		}
		written += n
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}
