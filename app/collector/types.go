package collector

import (
	"context"
	"time"
)

// RawArticle is the uniform shape every fetch adapter produces, before
// deduplication and persistence.
type RawArticle struct {
	Title          string
	URL            string
	Content        string
	Summary        string
	PublishedAt    *time.Time
	SourceCategory string
}

// Fetcher retrieves the current batch of articles from one source.
// Implementations swallow transient network failures and return an empty
// batch, but propagate context cancellation so shutdown is not masked.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]RawArticle, error)
}
