package collector

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	TypeRSS      = "rss"
	TypeRealtime = "realtime"
	TypeScrape   = "scrape"
)

// SourceConfig describes one news source from the sources file.
type SourceConfig struct {
	Name           string            `yaml:"name"`
	Type           string            `yaml:"type"`
	URL            string            `yaml:"url"`
	Category       string            `yaml:"category"`
	Enabled        bool              `yaml:"enabled"`
	MaxItems       int               `yaml:"max_items"`
	Headers        map[string]string `yaml:"headers"`
	AnchorURL      string            `yaml:"anchor_url"`
	Selectors      Selectors         `yaml:"selectors"`
	ExtractContent bool              `yaml:"extract_content"`
}

// Selectors configures the scrape adapter. Item scopes each article node,
// the rest are resolved relative to it.
type Selectors struct {
	Item    string `yaml:"item"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	Summary string `yaml:"summary"`
}

type sourcesFile struct {
	Sources []SourceConfig `yaml:"sources"`
}

// LoadSources reads and validates the sources file. Disabled sources are
// kept in the result so callers can report them; filtering happens at
// fetcher construction.
func LoadSources(path string) ([]SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	seen := make(map[string]bool)
	for i := range file.Sources {
		src := &file.Sources[i]
		setDefaults(src)
		if err := validate(src); err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("duplicate source name: %s", src.Name)
		}
		seen[src.Name] = true
	}

	return file.Sources, nil
}

func setDefaults(src *SourceConfig) {
	if src.MaxItems == 0 {
		src.MaxItems = 50
	}
}

func validate(src *SourceConfig) error {
	if src.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if src.URL == "" {
		return fmt.Errorf("source URL is required")
	}
	if src.MaxItems < 0 {
		return fmt.Errorf("max items must be non-negative")
	}

	switch src.Type {
	case TypeRSS, TypeRealtime:
	case TypeScrape:
		if src.Selectors.Item == "" || src.Selectors.Title == "" || src.Selectors.Link == "" {
			return fmt.Errorf("scrape source requires item, title and link selectors")
		}
	default:
		return fmt.Errorf("unknown source type: %q", src.Type)
	}

	return nil
}
