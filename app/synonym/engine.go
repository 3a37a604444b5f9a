// Package synonym provides the tiered Chinese synonym tables used by the
// deduplication scorer. Tables are loaded once at startup and are immutable
// afterwards, so lookups can be memoized indefinitely.
package synonym

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"unicode/utf8"
)

const (
	SourceBasic  = "basic"
	SourceNarrow = "narrow"
	SourceBroad  = "broad"
	SourceMulti  = "multi"
)

const lookupCacheLimit = 50000

type lookupKey struct {
	word   string
	limit  int
	source string
}

type Engine struct {
	basic     map[string][]string
	narrow    map[string][]string
	broad     map[string][]string
	preferred string

	mu    sync.Mutex
	cache map[lookupKey][]string
}

// NewEngine loads the three synonym tiers from JSON files in dataDir.
// Missing or unreadable files are skipped; if no tier loads at all, the
// built-in minimal dictionary is used so startup never fails on bad data.
func NewEngine(dataDir, preferred string) *Engine {
	e := &Engine{
		basic:     map[string][]string{},
		narrow:    map[string][]string{},
		broad:     map[string][]string{},
		preferred: normalizeSource(preferred),
		cache:     make(map[lookupKey][]string),
	}

	files := map[string]*map[string][]string{
		"synonyms.json":                 &e.basic,
		"synonyms_expanded_narrow.json": &e.narrow,
		"synonyms_expanded_broad.json":  &e.broad,
	}

	if dataDir != "" {
		for name, target := range files {
			table, err := loadTable(filepath.Join(dataDir, name))
			if err != nil {
				slog.Debug("Synonym table not loaded", "file", name, "error", err)
				continue
			}
			*target = table
		}
	}

	if len(e.basic) == 0 && len(e.narrow) == 0 && len(e.broad) == 0 {
		slog.Warn("No synonym tables found, using built-in dictionary", "data_dir", dataDir)
		e.basic = builtinDictionary()
	}

	return e
}

// NewEngineFromTables builds an engine from in-memory tables. Used by tests
// and by deployments that inject custom domain vocabularies.
func NewEngineFromTables(basic, narrow, broad map[string][]string, preferred string) *Engine {
	if basic == nil {
		basic = map[string][]string{}
	}
	if narrow == nil {
		narrow = map[string][]string{}
	}
	if broad == nil {
		broad = map[string][]string{}
	}
	return &Engine{
		basic:     basic,
		narrow:    narrow,
		broad:     broad,
		preferred: normalizeSource(preferred),
		cache:     make(map[lookupKey][]string),
	}
}

func loadTable(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse synonym table: %w", err)
	}

	table := make(map[string][]string, len(raw))
	for word, values := range raw {
		if word == "" {
			continue
		}
		filtered := make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				filtered = append(filtered, v)
			}
		}
		if len(filtered) > 0 {
			table[word] = filtered
		}
	}
	return table, nil
}

func normalizeSource(source string) string {
	switch source {
	case SourceBasic, SourceNarrow, SourceBroad, SourceMulti:
		return source
	default:
		return SourceMulti
	}
}

// HasWord reports whether any tier knows the word.
func (e *Engine) HasWord(word string) bool {
	if word == "" {
		return false
	}
	if _, ok := e.basic[word]; ok {
		return true
	}
	if _, ok := e.narrow[word]; ok {
		return true
	}
	_, ok := e.broad[word]
	return ok
}

// GetSynonyms returns up to limit related words for the given tier.
// source "" uses the engine's preferred tier.
func (e *Engine) GetSynonyms(word string, limit int, source string) []string {
	if word == "" || limit <= 0 {
		return nil
	}
	if source == "" {
		source = e.preferred
	}

	key := lookupKey{word: word, limit: limit, source: source}
	e.mu.Lock()
	if cached, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return cached
	}
	e.mu.Unlock()

	var candidates []string
	switch source {
	case SourceBasic:
		candidates = e.basic[word]
	case SourceNarrow:
		candidates = e.narrow[word]
		if len(candidates) == 0 {
			candidates = e.basic[word]
		}
	case SourceBroad:
		candidates = e.broad[word]
		if len(candidates) == 0 {
			candidates = e.narrow[word]
		}
		if len(candidates) == 0 {
			candidates = e.basic[word]
		}
	case SourceMulti:
		candidates = e.multiSourceSynonyms(word)
	}

	filtered := make([]string, 0, min(limit, len(candidates)))
	seen := make(map[string]struct{}, len(candidates))
	for _, s := range candidates {
		if s == "" || s == word {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		filtered = append(filtered, s)
		if len(filtered) >= limit {
			break
		}
	}

	e.mu.Lock()
	if len(e.cache) >= lookupCacheLimit {
		e.cache = make(map[lookupKey][]string)
	}
	e.cache[key] = filtered
	e.mu.Unlock()

	return filtered
}

// multiSourceSynonyms merges all tiers with weights 3/2/1 and ranks by
// summed weight, ties broken lexicographically. Broad-tier candidates are
// only considered when 2..6 runes long.
func (e *Engine) multiSourceSynonyms(word string) []string {
	weights := make(map[string]int)
	for _, syn := range e.basic[word] {
		weights[syn] += 3
	}
	for _, syn := range e.narrow[word] {
		weights[syn] += 2
	}
	for _, syn := range e.broad[word] {
		if n := utf8.RuneCountInString(syn); n >= 2 && n <= 6 {
			weights[syn]++
		}
	}

	if len(weights) == 0 {
		return nil
	}

	ranked := make([]string, 0, len(weights))
	for syn := range weights {
		ranked = append(ranked, syn)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if weights[ranked[i]] != weights[ranked[j]] {
			return weights[ranked[i]] > weights[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	return ranked
}

// AreSynonyms reports whether either word appears in the other's synonym set.
func (e *Engine) AreSynonyms(word1, word2, source string) bool {
	if word1 == "" || word2 == "" {
		return false
	}
	if word1 == word2 {
		return true
	}
	for _, s := range e.GetSynonyms(word1, 50, source) {
		if s == word2 {
			return true
		}
	}
	for _, s := range e.GetSynonyms(word2, 50, source) {
		if s == word1 {
			return true
		}
	}
	return false
}

// SimilarityScore returns a word-pair similarity in [0,1]: 1.0 for an exact
// match, 0.9 when one word is in the other's synonym set, otherwise the
// Jaccard overlap of the two synonym sets.
func (e *Engine) SimilarityScore(word1, word2, source string) float64 {
	if word1 == "" || word2 == "" {
		return 0.0
	}
	if word1 == word2 {
		return 1.0
	}

	if source == "" {
		source = e.preferred
	}
	if source == SourceMulti {
		return e.multiSourceSimilarity(word1, word2)
	}

	syn1 := toSet(e.GetSynonyms(word1, 50, source))
	syn2 := toSet(e.GetSynonyms(word2, 50, source))
	if _, ok := syn1[word2]; ok {
		return 0.9
	}
	if _, ok := syn2[word1]; ok {
		return 0.9
	}
	if len(syn1) > 0 && len(syn2) > 0 {
		common := 0
		for s := range syn1 {
			if _, ok := syn2[s]; ok {
				common++
			}
		}
		if common > 0 {
			union := len(syn1) + len(syn2) - common
			if union > 0 {
				return float64(common) / float64(union)
			}
		}
	}
	return 0.0
}

// multiSourceSimilarity averages the contributing per-tier scores weighted
// 3/2/1 and divides by a fixed 3, so a broad-only match tops out at 1/3.
// This damping is load-bearing for the default thresholds; keep it.
func (e *Engine) multiSourceSimilarity(word1, word2 string) float64 {
	tiers := []struct {
		source string
		weight float64
	}{
		{SourceBasic, 3},
		{SourceNarrow, 2},
		{SourceBroad, 1},
	}

	var sum float64
	var contributing int
	for _, tier := range tiers {
		score := e.SimilarityScore(word1, word2, tier.source)
		if score <= 0 {
			continue
		}
		sum += score * tier.weight
		contributing++
	}
	if contributing == 0 {
		return 0.0
	}
	return sum / float64(contributing) / 3.0
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
