package engineports

import "context"

// ResponseCache stores validated chat responses keyed by the normalized
// sanitized prompt. TTL is enforced on read; implementations evict the
// oldest entry when full.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
