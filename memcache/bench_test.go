package memcache

import (
	"context"
	"testing"

	"github.com/mghro/open-cradle/identity"
	"github.com/mghro/open-cradle/value"
)

func BenchmarkGetOrCreate_Hit(b *testing.B) {
	c := New(Config{})
	ctx := context.Background()
	id := identity.NewValueID(value.Int(1))

	h, _ := c.GetOrCreate(ctx, id, func(context.Context) (value.Value, error) {
		return value.Int(1), nil
	})
	if _, err := h.Await(ctx); err != nil {
		b.Fatal(err)
	}
	defer h.Release()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hit, _ := c.GetOrCreate(ctx, id, func(context.Context) (value.Value, error) {
			return value.Int(1), nil
		})
		if _, err := hit.Await(ctx); err != nil {
			b.Fatal(err)
		}
		hit.Release()
	}
}

func BenchmarkGetOrCreate_Parallel(b *testing.B) {
	c := New(Config{})
	id := identity.NewValueID(value.Int(2))

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		for pb.Next() {
			h, _ := c.GetOrCreate(ctx, id, func(context.Context) (value.Value, error) {
				return value.Int(2), nil
			})
			if _, err := h.Await(ctx); err != nil {
				b.Fatal(err)
			}
			h.Release()
		}
	})
}
