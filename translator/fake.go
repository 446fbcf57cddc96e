package translator

import "context"

// Fake delegates to a function, letting tests script latency, ordering, and
// failures per input.
type Fake struct {
	fn func(ctx context.Context, text string) (string, error)
}

func NewFake(fn func(ctx context.Context, text string) (string, error)) *Fake {
	return &Fake{fn: fn}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Translate(ctx context.Context, text string) (string, error) {
	return f.fn(ctx, text)
}
