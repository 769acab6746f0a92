package engineports

import "context"

// Span is a single traced operation.
type Span interface {
	End(err error)
	Event(name string, fields map[string]any)
}

// Tracer starts spans around engine stages.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}
