package runtime

import "context"

// key is an unexported type preventing collisions with other packages'
// context keys.
type key struct{}

// Into embeds the runtime context in a context.Context so coroutine bodies
// can reach it.
func Into(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, key{}, c)
}

// From extracts the runtime context embedded by Into.
func From(ctx context.Context) (*Context, bool) {
	c, ok := ctx.Value(key{}).(*Context)
	return c, ok
}
