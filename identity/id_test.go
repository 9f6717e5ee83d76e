package identity

import (
	"testing"

	"github.com/mghro/open-cradle/value"
)

func TestValueID_EqualValuesShareIdentity(t *testing.T) {
	a := NewValueID(value.Int(42))
	b := NewValueID(value.Int(42))
	if a.Hash() != b.Hash() {
		t.Error("equal values should share a hash")
	}
	if !a.Equals(b) {
		t.Error("equal values should share an identity")
	}

	c := NewValueID(value.Int(43))
	if a.Equals(c) {
		t.Error("distinct values should have distinct identities")
	}
}

func TestValueID_MapOrderInsensitive(t *testing.T) {
	a := NewValueID(value.MustMap(
		value.Pair{Key: value.String("x"), Value: value.Int(1)},
		value.Pair{Key: value.String("y"), Value: value.Int(2)},
	))
	b := NewValueID(value.MustMap(
		value.Pair{Key: value.String("y"), Value: value.Int(2)},
		value.Pair{Key: value.String("x"), Value: value.Int(1)},
	))
	// Hashes may differ (the encoding follows insertion order), but
	// Equals must still recognize the structural equality.
	if !a.Equals(b) {
		t.Error("maps with equal pairs in different order must compare equal")
	}
}

func TestFuncID_Composition(t *testing.T) {
	two := NewValueID(value.Int(2))
	three := NewValueID(value.Int(3))

	a := NewFuncID("add_v1", []ID{two, three})
	b := NewFuncID("add_v1", []ID{NewValueID(value.Int(2)), NewValueID(value.Int(3))})
	if !a.Equals(b) {
		t.Error("structurally identical requests should share an identity")
	}
	if a.Hash() != b.Hash() {
		t.Error("structurally identical requests should share a hash")
	}

	swapped := NewFuncID("add_v1", []ID{three, two})
	if a.Equals(swapped) {
		t.Error("argument order is significant")
	}

	other := NewFuncID("mul_v1", []ID{two, three})
	if a.Equals(other) {
		t.Error("class identifier is significant")
	}
}

func TestFuncID_NestingIsSignificant(t *testing.T) {
	one := NewValueID(value.Int(1))
	inner := NewFuncID("f", []ID{one})
	flat := NewFuncID("f", []ID{one, one})
	nested := NewFuncID("f", []ID{inner, one})
	if flat.Equals(nested) {
		t.Error("tree shape is significant")
	}
}

func TestDigest_Deterministic(t *testing.T) {
	build := func() Digest {
		h := NewHasher()
		h.WriteUUID("add_v1")
		if err := h.WriteValue(value.Int(2)); err != nil {
			t.Fatal(err)
		}
		if err := h.WriteValue(value.Int(3)); err != nil {
			t.Fatal(err)
		}
		return h.Sum()
	}
	a, b := build(), build()
	if a != b {
		t.Error("digest should be deterministic")
	}
	if a.Hex() == "" || len(a.Hex()) != 64 {
		t.Errorf("Hex() = %q, want 64 hex chars", a.Hex())
	}
}

func TestDigest_SubrequestIncorporation(t *testing.T) {
	sub := NewHasher()
	sub.WriteUUID("inner_v1")
	_ = sub.WriteValue(value.Int(1))
	subDigest := sub.Sum()

	a := NewHasher()
	a.WriteUUID("outer_v1")
	a.WriteDigest(subDigest)
	b := NewHasher()
	b.WriteUUID("outer_v1")
	_ = b.WriteValue(value.Int(1))
	if a.Sum() == b.Sum() {
		t.Error("a subrequest digest and a literal must not collide structurally")
	}
}
