package catalog

import (
	"errors"
	"testing"

	"github.com/mghro/open-cradle/request"
	"github.com/mghro/open-cradle/value"
)

func addFunc(args ...value.Value) (value.Value, error) {
	sum := int64(0)
	for _, a := range args {
		i, err := a.Int()
		if err != nil {
			return value.Value{}, err
		}
		sum += i
	}
	return value.Int(sum), nil
}

func addProps() request.Props {
	return request.Props{
		UUID:       "add_v1",
		Scope:      request.UUIDFullyCacheable,
		Level:      request.CacheMemory,
		ResultType: value.TypeInteger,
	}
}

func addRegistration() Registration {
	props := addProps()
	return Registration{
		Props: props,
		Rebuild: func(args []request.Request) (request.Request, error) {
			return request.NewPlain(props, addFunc, args...)
		},
	}
}

func TestRegistry_RegisterLookup(t *testing.T) {
	r := NewRegistry(nil)
	catID := NewCatalogID()

	if err := r.Register(catID, "add_v1", addRegistration()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := r.Lookup("add_v1"); err != nil {
		t.Errorf("Lookup failed: %v", err)
	}
	if _, err := r.Lookup("missing_v1"); !errors.Is(err, ErrUnregisteredUUID) {
		t.Errorf("Lookup of missing uuid = %v, want ErrUnregisteredUUID", err)
	}
}

func TestRegistry_InvalidRegistration(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(NewCatalogID(), "", addRegistration()); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("empty uuid error = %v, want ErrInvalidRegistration", err)
	}
	if err := r.Register(NewCatalogID(), "x", Registration{}); !errors.Is(err, ErrInvalidRegistration) {
		t.Errorf("nil rebuild error = %v, want ErrInvalidRegistration", err)
	}
}

func TestRegistry_UnregisterRemovesAllEntries(t *testing.T) {
	r := NewRegistry(nil)
	mine := NewCatalogID()
	other := NewCatalogID()

	if err := r.Register(mine, "add_v1", addRegistration()); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(other, "add_v1", addRegistration()); err != nil {
		t.Fatal(err)
	}

	r.Unregister(mine)

	// The other catalog's entry survives.
	if _, err := r.Lookup("add_v1"); err != nil {
		t.Errorf("Lookup after partial unregister failed: %v", err)
	}

	r.Unregister(other)
	if _, err := r.Lookup("add_v1"); !errors.Is(err, ErrUnregisteredUUID) {
		t.Errorf("Lookup after full unregister = %v, want ErrUnregisteredUUID", err)
	}
}

func TestRegistry_NewestRegistrationWins(t *testing.T) {
	r := NewRegistry(nil)
	first := NewCatalogID()
	second := NewCatalogID()

	marker := 0
	regWith := func(n int) Registration {
		props := addProps()
		return Registration{
			Props: props,
			Rebuild: func(args []request.Request) (request.Request, error) {
				marker = n
				return request.NewPlain(props, addFunc, args...)
			},
		}
	}

	if err := r.Register(first, "add_v1", regWith(1)); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(second, "add_v1", regWith(2)); err != nil {
		t.Fatal(err)
	}

	reg, err := r.Lookup("add_v1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Rebuild(nil); err != nil {
		t.Fatal(err)
	}
	if marker != 2 {
		t.Errorf("lookup returned entry %d, want the newest (2)", marker)
	}
}

func TestRegistry_ConflictingProps(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(NewCatalogID(), "add_v1", addRegistration()); err != nil {
		t.Fatal(err)
	}

	conflicting := addRegistration()
	conflicting.Props.ResultType = value.TypeString
	err := r.Register(NewCatalogID(), "add_v1", conflicting)
	if !errors.Is(err, ErrConflictingUUIDTypes) {
		t.Errorf("conflicting registration error = %v, want ErrConflictingUUIDTypes", err)
	}
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(NewCatalogID(), "add_v1", addRegistration()); err != nil {
		t.Fatal(err)
	}
	r.Reset()
	if got := len(r.UUIDs()); got != 0 {
		t.Errorf("UUIDs after Reset = %d entries, want 0", got)
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(NewCatalogID(), "add_v1", addRegistration()); err != nil {
		t.Fatal(err)
	}

	inner, err := request.NewPlain(addProps(), addFunc,
		request.Lit(value.Int(2)), request.Lit(value.Int(3)))
	if err != nil {
		t.Fatal(err)
	}
	outer, err := request.NewPlain(addProps(), addFunc,
		inner, request.Lit(value.Int(4)))
	if err != nil {
		t.Fatal(err)
	}

	data, err := Serialize(outer)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	got, err := r.Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if !got.ID().Equals(outer.ID()) {
		t.Error("round trip should preserve the request identity")
	}
}

func TestSerialize_RefusesUnserializable(t *testing.T) {
	props := request.Props{Level: request.CacheMemory}
	req, err := request.NewPlain(props, addFunc, request.Lit(value.Int(1)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Serialize(req); !errors.Is(err, request.ErrNotSerializable) {
		t.Errorf("Serialize = %v, want ErrNotSerializable", err)
	}
}

func TestDeserialize_UnregisteredUUID(t *testing.T) {
	r := NewRegistry(nil)
	req, err := request.NewPlain(addProps(), addFunc, request.Lit(value.Int(1)))
	if err != nil {
		t.Fatal(err)
	}
	data, err := Serialize(req)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Deserialize(data); !errors.Is(err, ErrUnregisteredUUID) {
		t.Errorf("Deserialize = %v, want ErrUnregisteredUUID", err)
	}
}

func TestDeserialize_Garbage(t *testing.T) {
	r := NewRegistry(nil)
	if _, err := r.Deserialize([]byte{0xC1, 0xFF}); !errors.Is(err, ErrBadEnvelope) {
		t.Errorf("Deserialize garbage = %v, want ErrBadEnvelope", err)
	}
}
