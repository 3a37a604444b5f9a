package database

import (
	"context"
	"database/sql"
	"time"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, so repository writes can
// run inside the per-source transaction or standalone.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ArticleRepository interface {
	URLExists(ctx context.Context, url string) (bool, error)
	HashExists(ctx context.Context, contentHash string) (bool, error)
	GetRecentArticles(ctx context.Context, limit int) ([]Article, error)
	GetArticleCount(ctx context.Context) (int, error)
	GetStats(ctx context.Context) (ArticleStats, error)

	// InsertArticle reports whether a row was actually written. A false
	// result means a unique constraint absorbed the insert: the article is
	// a duplicate that slipped past the dedup gates.
	InsertArticle(ctx context.Context, q Querier, article Article) (bool, error)
}

type CollectionLogRepository interface {
	GetLastCheckpoint(ctx context.Context, source string) (*time.Time, error)
	GetRecentLogs(ctx context.Context, source string, limit int) ([]CollectionLog, error)
	GetLatestPerSource(ctx context.Context) ([]CollectionLog, error)

	Insert(ctx context.Context, q Querier, log *CollectionLog) error
}
