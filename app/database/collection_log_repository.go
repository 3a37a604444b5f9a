package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type collectionLogRepository struct {
	db *DB
}

func NewCollectionLogRepository(db *DB) CollectionLogRepository {
	return &collectionLogRepository{db: db}
}

// GetLastCheckpoint returns the watermark of the latest successful
// collection attempt for a source, or nil when the source never succeeded.
func (r *collectionLogRepository) GetLastCheckpoint(ctx context.Context, source string) (*time.Time, error) {
	var lastArticleTime sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT last_article_time
		FROM collection_logs
		WHERE source = ? AND status = ?
		ORDER BY started_at DESC
		LIMIT 1
	`, source, StatusSuccess).Scan(&lastArticleTime)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last checkpoint: %w", err)
	}
	if !lastArticleTime.Valid {
		return nil, nil
	}

	t := lastArticleTime.Time
	return &t, nil
}

// Insert appends one collection-log row. Rows are never updated afterward.
func (r *collectionLogRepository) Insert(ctx context.Context, q Querier, log *CollectionLog) error {
	result, err := q.ExecContext(ctx, `
		INSERT INTO collection_logs (
			source, started_at, finished_at, status,
			articles_fetched, articles_new, articles_duplicate,
			last_article_time, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.Source, log.StartedAt, log.FinishedAt, log.Status,
		log.ArticlesFetched, log.ArticlesNew, log.ArticlesDuplicate,
		log.LastArticleTime, nullableString(log.ErrorMessage))
	if err != nil {
		return fmt.Errorf("failed to insert collection log: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		log.ID = id
	}
	return nil
}

func (r *collectionLogRepository) GetRecentLogs(ctx context.Context, source string, limit int) ([]CollectionLog, error) {
	query := `
		SELECT id, source, started_at, finished_at, status,
		       articles_fetched, articles_new, articles_duplicate,
		       last_article_time, COALESCE(error_message, '')
		FROM collection_logs
	`
	args := []any{}
	if source != "" {
		query += " WHERE source = ?"
		args = append(args, source)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection logs: %w", err)
	}
	defer rows.Close()

	return scanLogs(rows)
}

// GetLatestPerSource returns the most recent attempt for every source,
// successful or not, for the stats endpoint.
func (r *collectionLogRepository) GetLatestPerSource(ctx context.Context) ([]CollectionLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.source, l.started_at, l.finished_at, l.status,
		       l.articles_fetched, l.articles_new, l.articles_duplicate,
		       l.last_article_time, COALESCE(l.error_message, '')
		FROM collection_logs l
		JOIN (
			SELECT source, MAX(started_at) AS max_started_at
			FROM collection_logs
			GROUP BY source
		) latest ON l.source = latest.source AND l.started_at = latest.max_started_at
		ORDER BY l.source
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest logs per source: %w", err)
	}
	defer rows.Close()

	return scanLogs(rows)
}

func scanLogs(rows *sql.Rows) ([]CollectionLog, error) {
	var logs []CollectionLog
	for rows.Next() {
		var log CollectionLog
		var lastArticleTime sql.NullTime
		err := rows.Scan(
			&log.ID, &log.Source, &log.StartedAt, &log.FinishedAt, &log.Status,
			&log.ArticlesFetched, &log.ArticlesNew, &log.ArticlesDuplicate,
			&lastArticleTime, &log.ErrorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection log row: %w", err)
		}
		if lastArticleTime.Valid {
			t := lastArticleTime.Time
			log.LastArticleTime = &t
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection log rows: %w", err)
	}

	return logs, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
