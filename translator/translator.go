package translator

import "context"

// Engine turns one finalized segment of source-language text into a single
// translated string. Implementations must be safe for concurrent use: the
// pipeline dispatches one in-flight call per finalized segment with no upper
// bound.
type Engine interface {
	Name() string
	Translate(ctx context.Context, text string) (string, error)
}
