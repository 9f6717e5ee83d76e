package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/mghro/open-cradle/codec"
	"github.com/mghro/open-cradle/value"
)

// Digest is the SHA-256 content hash of a request, used as the
// secondary-storage key. It is stable across processes and builds.
type Digest [sha256.Size]byte

// Hex returns the lowercase hexadecimal form, suitable as a storage key.
func (d Digest) Hex() string { return hex.EncodeToString(d[:]) }

// Hasher accumulates the digest input: the request's UUID bytes followed by
// the native encoding of each argument, recursively. For an argument that is
// itself a request, that request's digest is incorporated; for a literal,
// its encoded value is.
type Hasher struct {
	h hash.Hash
}

// NewHasher starts a digest computation.
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// WriteUUID incorporates the request's UUID.
func (hs *Hasher) WriteUUID(uuid string) {
	_, _ = hs.h.Write([]byte(uuid))
}

// WriteValue incorporates a literal argument's encoded value.
func (hs *Hasher) WriteValue(v value.Value) error {
	return codec.Encode(hs.h, v)
}

// WriteDigest incorporates a subrequest's digest.
func (hs *Hasher) WriteDigest(d Digest) {
	_, _ = hs.h.Write(d[:])
}

// Sum finishes the computation.
func (hs *Hasher) Sum() Digest {
	var d Digest
	copy(d[:], hs.h.Sum(nil))
	return d
}
