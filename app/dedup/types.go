package dedup

// NewsText is the normalized comparison unit for a single article.
// Content and summary default to empty strings; values are never mutated.
type NewsText struct {
	Title   string
	Content string
	Summary string
}

// Method identifies which similarity layer produced a duplicate verdict.
type Method string

const (
	MethodNone                Method = ""
	MethodSemanticFingerprint Method = "semantic_fingerprint"
	MethodSynonymEnhanced     Method = "synonym_enhanced"
)

// SimilarityResult is the outcome of one pairwise comparison. It is
// reported for diagnostics and never persisted.
type SimilarityResult struct {
	IsDuplicate bool
	Method      Method
	Similarity  float64
	Details     string
}

// Config controls the similarity scorer.
type Config struct {
	SemanticThreshold  float64
	SynonymThreshold   float64
	EnableSynonyms     bool
	SynonymSource      string
	MaxSynonymsPerWord int
	MaxTokens          int
}

func DefaultConfig() Config {
	return Config{
		SemanticThreshold:  0.80,
		SynonymThreshold:   0.75,
		EnableSynonyms:     true,
		SynonymSource:      "multi",
		MaxSynonymsPerWord: 10,
		MaxTokens:          30,
	}
}
