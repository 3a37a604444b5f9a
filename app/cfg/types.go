package cfg

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	SourcesFile  string
	Port         string
	APIAccessKey string

	// Collection settings
	MaxConcurrency     int
	CollectorTimeout   int // seconds
	CollectionInterval int // seconds

	// Deduplication settings
	SemanticThreshold float64
	SynonymThreshold  float64
	EnableSynonyms    bool
	SynonymSource     string
	SynonymDataDir    string
	RecentWindow      int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
