package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./finfeed.db" description:"Path to the SQLite database file"`

	// Application configuration
	SourcesFile  string `long:"sources-file" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML file describing news sources"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Collection settings
	MaxConcurrency     int `long:"max-concurrency" env:"COLLECTION_MAX_CONCURRENCY" default:"5" description:"Maximum number of simultaneously running source fetches"`
	CollectorTimeout   int `long:"collector-timeout" env:"COLLECTOR_TIMEOUT" default:"30" description:"Per-source collection timeout in seconds"`
	CollectionInterval int `long:"collection-interval" env:"COLLECTION_INTERVAL_SECONDS" default:"30" description:"Collection scheduler interval in seconds"`

	// Deduplication settings
	SemanticThreshold float64 `long:"semantic-threshold" env:"DEDUP_SEMANTIC_THRESHOLD" default:"0.80" description:"Semantic fingerprint duplicate threshold"`
	SynonymThreshold  float64 `long:"synonym-threshold" env:"DEDUP_SYNONYM_THRESHOLD" default:"0.75" description:"Synonym-enhanced duplicate threshold"`
	DisableSynonyms   bool    `long:"disable-synonyms" env:"DEDUP_DISABLE_SYNONYMS" description:"Disable synonym-enhanced similarity"`
	SynonymSource     string  `long:"synonym-source" env:"DEDUP_SYNONYM_SOURCE" default:"multi" choice:"basic" choice:"narrow" choice:"broad" choice:"multi" description:"Synonym table tier used for similarity"`
	SynonymDataDir    string  `long:"synonym-data-dir" env:"DEDUP_SYNONYM_DATA_DIR" description:"Directory containing Chinese synonym JSON tables"`
	RecentWindow      int     `long:"recent-window" env:"DEDUP_RECENT_LIMIT" default:"50" description:"Number of recent articles compared in the similarity gate"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"FinFeed/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Shanghai)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		SourcesFile:        raw.SourcesFile,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		MaxConcurrency:     raw.MaxConcurrency,
		CollectorTimeout:   raw.CollectorTimeout,
		CollectionInterval: raw.CollectionInterval,
		SemanticThreshold:  raw.SemanticThreshold,
		SynonymThreshold:   raw.SynonymThreshold,
		EnableSynonyms:     !raw.DisableSynonyms,
		SynonymSource:      raw.SynonymSource,
		SynonymDataDir:     raw.SynonymDataDir,
		RecentWindow:       raw.RecentWindow,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
