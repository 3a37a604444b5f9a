package database

import (
	"context"
	"database/sql"
	"fmt"
)

type articleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) URLExists(ctx context.Context, url string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM news_articles WHERE url = ? LIMIT 1
	`, url).Scan(&id)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check URL existence: %w", err)
	}
	return true, nil
}

func (r *articleRepository) HashExists(ctx context.Context, contentHash string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM news_articles WHERE content_hash = ? LIMIT 1
	`, contentHash).Scan(&id)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check content hash existence: %w", err)
	}
	return true, nil
}

// GetRecentArticles returns the newest articles by published time, the
// bounded window the similarity gate compares against.
func (r *articleRepository) GetRecentArticles(ctx context.Context, limit int) ([]Article, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, url, COALESCE(content, ''), COALESCE(summary, ''),
		       source, COALESCE(source_category, ''), published_at, collected_at,
		       content_hash, is_filtered, is_starred, is_read, created_at
		FROM news_articles
		ORDER BY published_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		var article Article
		err := rows.Scan(
			&article.ID, &article.Title, &article.URL, &article.Content, &article.Summary,
			&article.Source, &article.SourceCategory, &article.PublishedAt, &article.CollectedAt,
			&article.ContentHash, &article.IsFiltered, &article.IsStarred, &article.IsRead,
			&article.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// InsertArticle writes a new article through INSERT OR IGNORE so that a
// unique-constraint race (two near-simultaneous fetches of the same URL)
// surfaces as "not inserted" instead of an error.
func (r *articleRepository) InsertArticle(ctx context.Context, q Querier, article Article) (bool, error) {
	result, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO news_articles (
			id, title, url, content, summary, source, source_category,
			published_at, collected_at, content_hash,
			is_filtered, is_starred, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, article.ID, article.Title, article.URL, article.Content, article.Summary,
		article.Source, article.SourceCategory, article.PublishedAt, article.CollectedAt,
		article.ContentHash, article.IsFiltered, article.IsStarred, article.IsRead,
		article.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return affected > 0, nil
}

func (r *articleRepository) GetArticleCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM news_articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

func (r *articleRepository) GetStats(ctx context.Context) (ArticleStats, error) {
	var stats ArticleStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN is_read = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_starred = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_filtered = 1 THEN 1 ELSE 0 END), 0)
		FROM news_articles
	`).Scan(&stats.Total, &stats.Unread, &stats.Starred, &stats.Filtered)
	if err != nil {
		return ArticleStats{}, fmt.Errorf("failed to get article stats: %w", err)
	}
	return stats, nil
}
