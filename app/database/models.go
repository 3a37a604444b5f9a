package database

import (
	"time"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Article is a persisted news record. URL and ContentHash are each globally
// unique, enforced by the schema as the last line of defense against
// dedup-engine false negatives.
type Article struct {
	ID             string
	Title          string
	URL            string
	Content        string
	Summary        string
	Source         string
	SourceCategory string
	PublishedAt    time.Time
	CollectedAt    time.Time
	ContentHash    string
	IsFiltered     bool
	IsStarred      bool
	IsRead         bool
	CreatedAt      time.Time
}

// CollectionLog records one collection attempt for a source. Rows are
// written once at attempt end and never mutated; the latest success row per
// source carries the checkpoint watermark in LastArticleTime.
type CollectionLog struct {
	ID                int64      `json:"id"`
	Source            string     `json:"source"`
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        time.Time  `json:"finished_at"`
	Status            string     `json:"status"`
	ArticlesFetched   int        `json:"articles_fetched"`
	ArticlesNew       int        `json:"articles_new"`
	ArticlesDuplicate int        `json:"articles_duplicate"`
	LastArticleTime   *time.Time `json:"last_article_time,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
}

// ArticleStats aggregates counters for the stats endpoint.
type ArticleStats struct {
	Total    int
	Unread   int
	Starred  int
	Filtered int
}
