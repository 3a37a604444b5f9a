package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/yikao/finfeed/app/collector"
	"github.com/yikao/finfeed/app/database"
)

var _ ManagerInterface = (*Manager)(nil)

// Result summarizes one collection run for a source.
type Result struct {
	Source     string `json:"source"`
	Fetched    int    `json:"fetched"`
	New        int    `json:"new"`
	Duplicates int    `json:"duplicates"`
}

// Manager runs the collect pipeline for one source at a time: fetch,
// checkpoint filter, dedup, then a single transaction holding the article
// inserts and the success log so the checkpoint can never run ahead of
// the data it describes.
type Manager struct {
	db        *database.DB
	articles  database.ArticleRepository
	logs      database.CollectionLogRepository
	persister *Persister
	fetchers  map[string]collector.Fetcher
}

func NewManager(db *database.DB, articles database.ArticleRepository,
	logs database.CollectionLogRepository, persister *Persister,
	fetchers []collector.Fetcher) *Manager {
	byName := make(map[string]collector.Fetcher, len(fetchers))
	for _, f := range fetchers {
		byName[f.Name()] = f
	}

	return &Manager{
		db:        db,
		articles:  articles,
		logs:      logs,
		persister: persister,
		fetchers:  byName,
	}
}

// Sources returns the registered source names in stable order.
func (m *Manager) Sources() []string {
	names := make([]string, 0, len(m.fetchers))
	for name := range m.fetchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) CollectFrom(ctx context.Context, source string) (*Result, error) {
	fetcher, ok := m.fetchers[source]
	if !ok {
		return nil, fmt.Errorf("unknown source: %s", source)
	}

	startedAt := time.Now().UTC()

	result, err := m.collect(ctx, fetcher, startedAt)
	if err != nil {
		// Parent cancellation is shutdown, not a source failure. Timeouts
		// and real errors still get a failed log row.
		if !errors.Is(err, context.Canceled) {
			m.recordFailure(source, startedAt, err)
		}
		return nil, err
	}

	return result, nil
}

func (m *Manager) collect(ctx context.Context, fetcher collector.Fetcher, startedAt time.Time) (*Result, error) {
	source := fetcher.Name()

	raws, err := fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	checkpoint, err := m.logs.GetLastCheckpoint(ctx, source)
	if err != nil {
		return nil, err
	}

	articles, duplicates, maxPublishedAt, err := m.persister.Run(ctx, raws, source, checkpoint)
	if err != nil {
		return nil, err
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, article := range articles {
		ok, err := m.articles.InsertArticle(ctx, tx, article)
		if err != nil {
			return nil, err
		}
		if ok {
			inserted++
		} else {
			// A concurrent run won the unique-constraint race.
			duplicates++
		}
	}

	log := &database.CollectionLog{
		Source:            source,
		StartedAt:         startedAt,
		FinishedAt:        time.Now().UTC(),
		Status:            database.StatusSuccess,
		ArticlesFetched:   len(raws),
		ArticlesNew:       inserted,
		ArticlesDuplicate: duplicates,
		LastArticleTime:   maxPublishedAt,
	}
	if err := m.logs.Insert(ctx, tx, log); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("Collection completed",
		"source", source,
		"fetched", len(raws),
		"new", inserted,
		"duplicates", duplicates)

	return &Result{
		Source:     source,
		Fetched:    len(raws),
		New:        inserted,
		Duplicates: duplicates,
	}, nil
}

// recordFailure writes the failed log row on its own short-lived context,
// since the run context may already be cancelled or past its deadline.
func (m *Manager) recordFailure(source string, startedAt time.Time, runErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log := &database.CollectionLog{
		Source:       source,
		StartedAt:    startedAt,
		FinishedAt:   time.Now().UTC(),
		Status:       database.StatusFailed,
		ErrorMessage: runErr.Error(),
	}
	if err := m.logs.Insert(ctx, m.db, log); err != nil {
		slog.Error("Failed to record collection failure", "source", source, "error", err)
	}
}
