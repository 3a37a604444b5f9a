package collector

import (
	"fmt"
	"log/slog"
)

// NewFetcher builds the adapter for a source. The set of types is closed:
// sources file validation guarantees the type is one of these.
func NewFetcher(src SourceConfig, userAgent string) (Fetcher, error) {
	switch src.Type {
	case TypeRSS:
		return NewRSSFetcher(src, userAgent), nil
	case TypeRealtime:
		return NewRealtimeFetcher(src, userAgent), nil
	case TypeScrape:
		return NewScrapeFetcher(src, userAgent), nil
	default:
		return nil, fmt.Errorf("unknown source type: %q", src.Type)
	}
}

// BuildFetchers constructs adapters for all enabled sources.
func BuildFetchers(sources []SourceConfig, userAgent string) ([]Fetcher, error) {
	fetchers := make([]Fetcher, 0, len(sources))
	for _, src := range sources {
		if !src.Enabled {
			slog.Debug("Skipping disabled source", "source", src.Name)
			continue
		}

		fetcher, err := NewFetcher(src, userAgent)
		if err != nil {
			return nil, fmt.Errorf("failed to build fetcher for %s: %w", src.Name, err)
		}
		fetchers = append(fetchers, fetcher)
	}

	return fetchers, nil
}
