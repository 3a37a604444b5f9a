// Package dedup implements the similarity scorer and the three-layer
// deduplication gate used before persisting freshly fetched articles.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/yikao/finfeed/app/synonym"
)

const (
	detailDuplicateSemantic = "语义要素匹配"
	detailDuplicateSynonym  = "同义词增强匹配"
	detailNoDuplicate       = "未发现重复"
)

const synonymScoreCacheLimit = 5000

var (
	numberRe     = regexp.MustCompile(`(\d+(?:\.\d+)?)[%％]?`)
	alnumRunRe   = regexp.MustCompile(`[a-z0-9]{2,}`)
	cjkRunRe     = regexp.MustCompile(`[\x{4e00}-\x{9fff}]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

var punctuationReplacer = strings.NewReplacer(
	"，", ",", "。", ".", "？", "?", "！", "!", "；", ";", "：", ":",
)

var semanticCategories = []string{"companies", "actions", "numbers", "themes"}

var semanticWeights = map[string]float64{
	"companies": 0.4,
	"actions":   0.3,
	"numbers":   0.2,
	"themes":    0.1,
}

type pairKey struct {
	text1 string
	text2 string
}

// Scorer produces pairwise duplicate verdicts for news texts. It is safe
// for concurrent use; the synonym-score memo is mutex-guarded since the
// same candidate is compared against many currents in one session.
type Scorer struct {
	cfg    Config
	engine *synonym.Engine

	mu       sync.Mutex
	synCache map[pairKey]float64
}

// NewScorer builds a scorer. engine may be nil; it is also ignored when
// synonym use is disabled in the config.
func NewScorer(cfg Config, engine *synonym.Engine) *Scorer {
	if !cfg.EnableSynonyms {
		engine = nil
	}
	return &Scorer{
		cfg:      cfg,
		engine:   engine,
		synCache: make(map[pairKey]float64),
	}
}

// Compare runs the two similarity layers in order, short-circuiting on the
// first duplicate verdict: semantic fingerprint first, then (when synonyms
// are enabled) the synonym-enhanced score.
func (s *Scorer) Compare(current, candidate NewsText) SimilarityResult {
	currentText := combineText(current)
	candidateText := combineText(candidate)

	semanticSim := s.semanticSimilarity(
		s.extractSemanticElements(currentText),
		s.extractSemanticElements(candidateText),
	)
	if semanticSim >= s.cfg.SemanticThreshold {
		return SimilarityResult{
			IsDuplicate: true,
			Method:      MethodSemanticFingerprint,
			Similarity:  semanticSim,
			Details:     detailDuplicateSemantic,
		}
	}

	if s.engine == nil {
		return SimilarityResult{
			IsDuplicate: false,
			Method:      MethodNone,
			Similarity:  semanticSim,
			Details:     detailNoDuplicate,
		}
	}

	synonymSim := s.synonymEnhancedSimilarity(currentText, candidateText)
	if synonymSim >= s.cfg.SynonymThreshold {
		return SimilarityResult{
			IsDuplicate: true,
			Method:      MethodSynonymEnhanced,
			Similarity:  synonymSim,
			Details:     detailDuplicateSynonym,
		}
	}

	return SimilarityResult{
		IsDuplicate: false,
		Method:      MethodNone,
		Similarity:  max(semanticSim, synonymSim),
		Details:     detailNoDuplicate,
	}
}

// ExactFingerprint returns a stable fingerprint of the normalized text.
func (s *Scorer) ExactFingerprint(text string) string {
	sum := md5.Sum([]byte(normalizeText(text)))
	return hex.EncodeToString(sum[:])
}

// SemanticFingerprint returns a fingerprint of the extracted semantic
// elements, flattened per category in a fixed order.
func (s *Scorer) SemanticFingerprint(text string) string {
	elements := s.extractSemanticElements(text)
	flattened := make([]string, 0, len(semanticCategories))
	for _, category := range semanticCategories {
		flattened = append(flattened, fmt.Sprintf("%s:%s", category, strings.Join(elements[category], ",")))
	}
	sum := md5.Sum([]byte(strings.Join(flattened, "|")))
	return hex.EncodeToString(sum[:])
}

func combineText(news NewsText) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{news.Title, news.Summary, news.Content} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func normalizeText(text string) string {
	text = strings.ToLower(text)
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	return punctuationReplacer.Replace(text)
}

// extractSemanticElements pulls the four curated categories out of a text:
// company names, market-direction verbs, numeric tokens and thematic nouns.
// Matched keywords are canonicalized so paraphrases land on the same form.
func (s *Scorer) extractSemanticElements(text string) map[string][]string {
	elements := map[string][]string{
		"companies": nil,
		"actions":   nil,
		"numbers":   nil,
		"themes":    nil,
	}

	for _, company := range companyPatterns {
		if strings.Contains(text, company) {
			elements["companies"] = append(elements["companies"], s.canonicalForm(company, "company"))
		}
	}
	for _, action := range actionPatterns {
		if strings.Contains(text, action) {
			elements["actions"] = append(elements["actions"], s.canonicalForm(action, "action"))
		}
	}
	elements["numbers"] = extractNumbers(text)
	for _, theme := range themePatterns {
		if strings.Contains(text, theme) {
			elements["themes"] = append(elements["themes"], s.canonicalForm(theme, "theme"))
		}
	}

	for category, values := range elements {
		elements[category] = sortedUnique(values)
	}
	return elements
}

func extractNumbers(text string) []string {
	matches := numberRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	numbers := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		numbers = append(numbers, m[1])
	}
	return numbers
}

// canonicalForm maps a matched keyword to its group representative,
// consulting the synonym engine when the word is not a listed variant.
func (s *Scorer) canonicalForm(word, category string) string {
	for _, group := range canonicalGroups[category] {
		if word == group.canonical {
			return group.canonical
		}
		for _, variant := range group.variants {
			if word == variant {
				return group.canonical
			}
		}
		if s.engine != nil && s.engine.AreSynonyms(word, group.canonical, s.cfg.SynonymSource) {
			return group.canonical
		}
	}
	return word
}

// semanticSimilarity computes a weighted Dice-coefficient average over the
// four categories. A category only contributes to the weight denominator
// when at least one side has elements in it.
func (s *Scorer) semanticSimilarity(elements1, elements2 map[string][]string) float64 {
	var totalScore, totalWeight float64
	for _, category := range semanticCategories {
		weight := semanticWeights[category]
		list1 := elements1[category]
		list2 := elements2[category]

		switch {
		case len(list1) > 0 && len(list2) > 0:
			set1 := toSet(list1)
			set2 := toSet(list2)
			intersection := 0
			for v := range set1 {
				if _, ok := set2[v]; ok {
					intersection++
				}
			}
			totalLen := len(set1) + len(set2)
			if totalLen > 0 {
				totalScore += (2.0 * float64(intersection)) / float64(totalLen) * weight
			}
			totalWeight += weight
		case len(list1) > 0 || len(list2) > 0:
			totalWeight += weight
		}
	}

	if totalWeight == 0 {
		return 0.0
	}
	return totalScore / totalWeight
}

// synonymEnhancedSimilarity combines five weighted sub-scores. Results are
// memoized per exact text pair in a bounded cache.
func (s *Scorer) synonymEnhancedSimilarity(text1, text2 string) float64 {
	key := pairKey{text1: text1, text2: text2}
	s.mu.Lock()
	if cached, ok := s.synCache[key]; ok {
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	score := s.computeSynonymEnhancedSimilarity(text1, text2)

	s.mu.Lock()
	if len(s.synCache) >= synonymScoreCacheLimit {
		s.synCache = make(map[pairKey]float64)
	}
	s.synCache[key] = score
	s.mu.Unlock()

	return score
}

func (s *Scorer) computeSynonymEnhancedSimilarity(text1, text2 string) float64 {
	if s.engine == nil {
		return s.basicSimilarity(text1, text2)
	}

	tokens1 := s.tokenize(text1)
	tokens2 := s.tokenize(text2)
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}

	exact := exactSimilarity(tokens1, tokens2)
	syn := s.synonymSimilarity(tokens1, tokens2)
	semantic := s.semanticSimilarity(
		s.extractSemanticElements(text1),
		s.extractSemanticElements(text2),
	)
	numeric := numericSimilarity(text1, text2)
	structure := structuralSimilarity(text1, text2)

	return exact*0.3 + syn*0.4 + semantic*0.15 + numeric*0.1 + structure*0.05
}

// synonymSimilarity averages the best synonym match for every token in one
// direction, then takes the max of both directions so asymmetric synonym
// coverage still yields the higher score.
func (s *Scorer) synonymSimilarity(tokens1, tokens2 []string) float64 {
	if s.engine == nil {
		return 0.0
	}

	oneWay := func(source, target []string) float64 {
		if len(source) == 0 {
			return 0.0
		}
		var total float64
		for _, t1 := range source {
			var best float64
			for _, t2 := range target {
				var score float64
				if t1 == t2 {
					score = 1.0
				} else {
					score = s.engine.SimilarityScore(t1, t2, s.cfg.SynonymSource)
				}
				if score > best {
					best = score
					if best >= 1.0 {
						break
					}
				}
			}
			total += best
		}
		return total / float64(len(source))
	}

	return max(oneWay(tokens1, tokens2), oneWay(tokens2, tokens1))
}

func exactSimilarity(tokens1, tokens2 []string) float64 {
	set1 := toSet(tokens1)
	set2 := toSet(tokens2)
	intersection := 0
	for t := range set1 {
		if _, ok := set2[t]; ok {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// numericSimilarity is the Jaccard overlap of extracted numeric tokens,
// defined as 1.0 when neither side has any numbers.
func numericSimilarity(text1, text2 string) float64 {
	nums1 := toSet(extractNumbers(text1))
	nums2 := toSet(extractNumbers(text2))
	if len(nums1) == 0 && len(nums2) == 0 {
		return 1.0
	}
	if len(nums1) == 0 || len(nums2) == 0 {
		return 0.0
	}
	intersection := 0
	for n := range nums1 {
		if _, ok := nums2[n]; ok {
			intersection++
		}
	}
	union := len(nums1) + len(nums2) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func structuralSimilarity(text1, text2 string) float64 {
	len1 := utf8.RuneCountInString(text1)
	len2 := utf8.RuneCountInString(text2)
	if len1 == 0 && len2 == 0 {
		return 1.0
	}
	maxLen := max(len1, len2)
	if maxLen == 0 {
		return 0.0
	}
	return 1.0 - float64(abs(len1-len2))/float64(maxLen)
}

func (s *Scorer) basicSimilarity(text1, text2 string) float64 {
	tokens1 := s.tokenize(text1)
	tokens2 := s.tokenize(text2)
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0.0
	}
	return exactSimilarity(tokens1, tokens2)
}

// tokenize extracts comparison tokens from a text: semantic-element tokens
// first, then alphanumeric runs, then Chinese n-grams (4/3/2) that appear
// in the synonym vocabulary plus run suffixes. Tokens are stopword-filtered,
// at least 2 runes long, deduplicated and capped at the token budget.
func (s *Scorer) tokenize(text string) []string {
	normalized := normalizeText(text)
	maxTotal := s.cfg.MaxTokens

	semantic := s.extractSemanticElements(normalized)
	semanticTokens := make(map[string]struct{})
	for _, category := range semanticCategories {
		for _, t := range semantic[category] {
			semanticTokens[t] = struct{}{}
		}
	}

	tokens := make([]string, 0, maxTotal)
	for _, t := range sortedKeys(semanticTokens) {
		tokens = append(tokens, t)
		if len(tokens) >= maxTotal {
			break
		}
	}

	if len(tokens) < maxTotal {
		for _, alnum := range alnumRunRe.FindAllString(normalized, -1) {
			tokens = append(tokens, alnum)
			if len(tokens) >= maxTotal {
				break
			}
		}
	}

	for _, seq := range cjkRunRe.FindAllString(normalized, -1) {
		if len(tokens) >= maxTotal {
			break
		}

		runes := []rune(seq)
		if len(runes) <= 6 {
			if s.isKnownToken(seq, semanticTokens) {
				tokens = append(tokens, seq)
			}
			continue
		}

		for _, n := range []int{4, 3, 2} {
			if len(tokens) >= maxTotal {
				break
			}
			for i := 0; i+n <= len(runes); i++ {
				token := string(runes[i : i+n])
				if s.isKnownToken(token, semanticTokens) {
					tokens = append(tokens, token)
				}
				if len(tokens) >= maxTotal {
					break
				}
			}
		}

		// Run suffixes anchor the tail of long sequences even when no
		// n-gram is in the vocabulary.
		for _, n := range []int{4, 3, 2} {
			if len(tokens) >= maxTotal {
				break
			}
			if len(runes) >= n {
				tokens = append(tokens, string(runes[len(runes)-n:]))
			}
		}
	}

	filtered := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t == "" || utf8.RuneCountInString(t) < 2 {
			continue
		}
		if _, ok := stopwords[t]; ok {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		filtered = append(filtered, t)
		if len(filtered) >= s.cfg.MaxTokens {
			break
		}
	}
	return filtered
}

func (s *Scorer) isKnownToken(token string, semanticTokens map[string]struct{}) bool {
	if _, ok := semanticTokens[token]; ok {
		return true
	}
	return s.engine != nil && s.engine.HasWord(token)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func sortedUnique(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return sortedKeys(toSet(values))
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
