package identity

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/mghro/open-cradle/codec"
	"github.com/mghro/open-cradle/value"
)

// ID is the content-derived identity of a request, used as the memory-cache
// key. Hash is fast and non-cryptographic; Equals confirms semantic
// equality on hash collision.
type ID interface {
	Hash() uint64
	Equals(other ID) bool
	String() string
}

// ValueID identifies a literal request by its wrapped value.
type ValueID struct {
	val  value.Value
	hash uint64
}

// NewValueID computes the identity of a literal value.
func NewValueID(v value.Value) ValueID {
	d := xxhash.New()
	// The native encoding is the hash input; encoding a value held in
	// memory cannot fail.
	if err := codec.Encode(d, v); err != nil {
		panic(fmt.Sprintf("identity: encoding literal: %v", err))
	}
	return ValueID{val: v, hash: d.Sum64()}
}

// Hash returns the precomputed content hash.
func (id ValueID) Hash() uint64 { return id.hash }

// Equals reports structural equality with another ValueID. Maps compare
// as unordered sets, so two ValueIDs may be equal while their hashes differ.
func (id ValueID) Equals(other ID) bool {
	o, ok := other.(ValueID)
	return ok && value.Equal(id.val, o.val)
}

func (id ValueID) String() string {
	return fmt.Sprintf("value(%016x)", id.hash)
}

// Value returns the identified value.
func (id ValueID) Value() value.Value { return id.val }

// FuncID identifies a function request by a stable class identifier (the
// request's UUID, or the host's identity of the function when no UUID is
// declared) and the ordered identities of its arguments.
type FuncID struct {
	class string
	args  []ID
	hash  uint64
}

// NewFuncID combines the class identifier and argument identities with a
// non-associative mix, so argument order and tree shape are significant.
func NewFuncID(class string, args []ID) FuncID {
	d := xxhash.New()
	_, _ = d.WriteString(class)
	var buf [12]byte
	for i, arg := range args {
		binary.LittleEndian.PutUint32(buf[:4], uint32(i))
		binary.LittleEndian.PutUint64(buf[4:], arg.Hash())
		_, _ = d.Write(buf[:])
	}
	return FuncID{class: class, args: args, hash: d.Sum64()}
}

// Hash returns the precomputed content hash.
func (id FuncID) Hash() uint64 { return id.hash }

// Equals reports semantic equality: same class, same argument identities in
// the same order.
func (id FuncID) Equals(other ID) bool {
	o, ok := other.(FuncID)
	if !ok || id.hash != o.hash || id.class != o.class || len(id.args) != len(o.args) {
		return false
	}
	for i := range id.args {
		if !id.args[i].Equals(o.args[i]) {
			return false
		}
	}
	return true
}

func (id FuncID) String() string {
	return fmt.Sprintf("%s(%016x)", id.class, id.hash)
}
