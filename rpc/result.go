package rpc

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/mghro/open-cradle/codec"
	"github.com/mghro/open-cradle/value"
)

// DefaultBlobFileThreshold is the result size at or above which the server
// prefers a shared file over an inline payload.
const DefaultBlobFileThreshold = int64(1 << 20)

// blobFiles tracks shared result files awaiting the client's ack.
type blobFiles struct {
	mu     sync.Mutex
	nextID atomic.Uint64
	files  map[uint64]string
	dir    string
}

func newBlobFiles(dir string) *blobFiles {
	return &blobFiles{files: make(map[uint64]string), dir: dir}
}

// put writes data to a fresh file and registers it under a response id.
func (b *blobFiles) put(data []byte) (uint64, string, error) {
	id := b.nextID.Add(1)
	path := filepath.Join(b.dir, fmt.Sprintf("blob-%d", id))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, "", fmt.Errorf("rpc: writing shared blob: %w", err)
	}
	b.mu.Lock()
	b.files[id] = path
	b.mu.Unlock()
	return id, path, nil
}

// ack unlinks the file registered under id. Unacked files stay until the
// server is closed.
func (b *blobFiles) ack(id uint64) {
	b.mu.Lock()
	path, ok := b.files[id]
	delete(b.files, id)
	b.mu.Unlock()
	if ok {
		os.Remove(path)
	}
}

// cleanup unlinks every registered file.
func (b *blobFiles) cleanup() {
	b.mu.Lock()
	files := b.files
	b.files = make(map[uint64]string)
	b.mu.Unlock()
	for _, path := range files {
		os.Remove(path)
	}
}

// encodeResult serializes a result value. A blob at or above the threshold
// travels by shared file when a blob directory is configured.
func encodeResult(v value.Value, files *blobFiles, threshold int64) (*resultEnvelope, error) {
	if files != nil && v.Kind() == value.TypeBlob {
		blob, _ := v.Blob()
		if blob.Size() >= threshold {
			id, path, err := files.put(blob.Bytes())
			if err == nil {
				return &resultEnvelope{File: path, RespID: id}, nil
			}
			// Fall back to an inline payload.
		}
	}
	data, err := codec.EncodeMsgpack(v)
	if err != nil {
		return nil, err
	}
	return &resultEnvelope{Data: data}, nil
}

// decodeResult turns an envelope back into msgpack value bytes. For a
// file reference it reads the shared file and re-encodes it as a blob
// value; the caller must ack RespID afterwards.
func decodeResult(env *resultEnvelope) ([]byte, error) {
	if env == nil {
		return nil, fmt.Errorf("rpc: missing result envelope")
	}
	if env.File == "" {
		return env.Data, nil
	}
	blob, err := value.NewFileBlob(env.File)
	if err != nil {
		return nil, err
	}
	return codec.EncodeMsgpack(value.BlobValue(blob))
}
