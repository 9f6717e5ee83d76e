package value

import (
	"bytes"
	"fmt"
	"os"
)

// Blob is a byte range with shared ownership of its backing storage.
//
// A blob may be backed by an in-process allocation or by a file created for
// cross-process sharing with a remote worker. Two blobs compare equal iff
// their byte ranges are bytewise equal, regardless of backing.
type Blob struct {
	data []byte
	// path is non-empty when the blob's backing storage is a shared file.
	path string
}

// NewBlob wraps an in-process byte slice. The slice is retained, not copied;
// callers must not mutate it afterwards.
func NewBlob(data []byte) Blob {
	return Blob{data: data}
}

// NewFileBlob reads the file at path and returns a blob backed by it. The
// path is retained so the blob can later be transported by reference.
func NewFileBlob(path string) (Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Blob{}, fmt.Errorf("value: reading blob file: %w", err)
	}
	return Blob{data: data, path: path}, nil
}

// Bytes returns the blob's byte range. The returned slice must not be
// mutated.
func (b Blob) Bytes() []byte { return b.data }

// Size returns the length of the byte range.
func (b Blob) Size() int64 { return int64(len(b.data)) }

// IsEmpty reports whether the byte range is empty. Secondary storage uses an
// empty blob to signal a miss.
func (b Blob) IsEmpty() bool { return len(b.data) == 0 }

// Path returns the backing file path, or "" for in-process blobs.
func (b Blob) Path() string { return b.path }

// Equal reports bytewise equality of the byte ranges.
func (b Blob) Equal(other Blob) bool {
	return bytes.Equal(b.data, other.data)
}
