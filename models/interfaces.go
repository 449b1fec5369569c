package models

import "context"

// Completer produces a text completion for a prompt. Implemented by the
// OpenAI client in production and by a canned fake in tests.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewsSearcher returns recent articles for a query, newest first.
type NewsSearcher interface {
	SearchNews(ctx context.Context, query string, limit int) ([]NewsItem, error)
}

// DeepSearcher runs the slower multi-source research pass and returns a
// digest of what it found.
type DeepSearcher interface {
	DeepSearch(ctx context.Context, query string) (string, error)
}

// PriceSource resolves a real-time reference price for a named asset.
type PriceSource interface {
	SpotPrice(ctx context.Context, symbol string) (float64, error)
}
