package request

import (
	"context"

	"github.com/mghro/open-cradle/identity"
	"github.com/mghro/open-cradle/resilience"
	"github.com/mghro/open-cradle/value"
)

// Literal wraps a value as a request. Its caching level is none: the value
// is already at hand.
type Literal struct {
	val value.Value
	id  identity.ValueID
}

// Lit builds a literal request.
func Lit(v value.Value) *Literal {
	return &Literal{val: v, id: identity.NewValueID(v)}
}

// Value returns the wrapped value.
func (l *Literal) Value() value.Value { return l.val }

func (l *Literal) UUID() string                { return "" }
func (l *Literal) UUIDScope() UUIDScope        { return UUIDNone }
func (l *Literal) ValueType() value.Type       { return l.val.Kind() }
func (l *Literal) CachingLevel() CachingLevel  { return CacheNone }
func (l *Literal) Introspective() bool         { return false }
func (l *Literal) Title() string               { return "" }
func (l *Literal) Coroutine() bool             { return false }
func (l *Literal) ProxyOnly() bool             { return false }
func (l *Literal) Retrier() resilience.Retrier { return nil }
func (l *Literal) ID() identity.ID             { return l.id }
func (l *Literal) Args() []Request             { return nil }

// Digest hashes the literal's encoded value; stable across processes.
func (l *Literal) Digest() (identity.Digest, error) {
	h := identity.NewHasher()
	if err := h.WriteValue(l.val); err != nil {
		return identity.Digest{}, err
	}
	return h.Sum(), nil
}

// Invoke returns the wrapped value.
func (l *Literal) Invoke(context.Context, []value.Value) (value.Value, error) {
	return l.val, nil
}

var _ Request = (*Literal)(nil)
