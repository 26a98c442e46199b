// Package transport moves query wire maps to the search engine and response
// wire maps back. Implementations are opaque request/response functions; the
// model layer never sees HTTP or caching details.
package transport

import "context"

// Doer sends one query wire map and returns the response wire map.
type Doer interface {
	Send(ctx context.Context, body map[string]any) (map[string]any, error)
}
