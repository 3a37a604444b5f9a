package collection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yikao/finfeed/app/collector"
	"github.com/yikao/finfeed/app/database"
)

// Persister turns raw fetched articles into deduplicated database records.
type Persister struct {
	dedup DedupService
	now   func() time.Time
}

func NewPersister(dedup DedupService) *Persister {
	return &Persister{
		dedup: dedup,
		now:   time.Now,
	}
}

// Run filters a fetched batch against the checkpoint and the dedup gates.
// It returns the surviving records, the duplicate count, and the maximum
// published time across the WHOLE batch. The maximum is tracked before any
// skipping so the checkpoint advances even when every article is old or a
// duplicate, keeping the next run from rescanning the same window.
func (p *Persister) Run(ctx context.Context, raws []collector.RawArticle, source string, checkpoint *time.Time) ([]database.Article, int, *time.Time, error) {
	collectedAt := p.now().UTC()

	var articles []database.Article
	var maxPublishedAt *time.Time
	duplicates := 0

	for _, raw := range raws {
		publishedAt := collectedAt
		if raw.PublishedAt != nil {
			publishedAt = raw.PublishedAt.UTC()
		}

		if maxPublishedAt == nil || publishedAt.After(*maxPublishedAt) {
			t := publishedAt
			maxPublishedAt = &t
		}

		if checkpoint != nil && !publishedAt.After(*checkpoint) {
			continue
		}

		title := strings.TrimSpace(raw.Title)
		if title == "" {
			continue
		}

		isDup, contentHash, err := p.dedup.IsDuplicate(ctx, raw.URL, raw.Title, source, raw.Content, raw.Summary)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("dedup check failed: %w", err)
		}
		if isDup {
			duplicates++
			continue
		}

		articles = append(articles, database.Article{
			ID:             uuid.NewString(),
			Title:          title,
			URL:            raw.URL,
			Content:        raw.Content,
			Summary:        raw.Summary,
			Source:         source,
			SourceCategory: raw.SourceCategory,
			PublishedAt:    publishedAt,
			CollectedAt:    collectedAt,
			ContentHash:    contentHash,
			CreatedAt:      collectedAt,
		})
	}

	return articles, duplicates, maxPublishedAt, nil
}
