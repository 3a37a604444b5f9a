package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"github.com/yikao/finfeed/app/database"
)

var (
	// Bracket-delimited tags commonly prefixed to financial headlines,
	// e.g. 【快讯】, [图], (口述). Mixed opener/closer pairs are stripped too.
	bracketTagRe = regexp.MustCompile(`[【\[(].*?[】\])]`)
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_]`)
)

// ArticleStore is the read surface the deduplication gates need.
type ArticleStore interface {
	URLExists(ctx context.Context, url string) (bool, error)
	HashExists(ctx context.Context, contentHash string) (bool, error)
	GetRecentArticles(ctx context.Context, limit int) ([]database.Article, error)
}

// Service applies the three escalating deduplication gates: exact URL,
// exact content hash, similarity against a recent window.
type Service struct {
	store        ArticleStore
	scorer       *Scorer
	recentWindow int
}

func NewService(store ArticleStore, scorer *Scorer, recentWindow int) *Service {
	if recentWindow < 1 {
		recentWindow = 1
	}
	return &Service{
		store:        store,
		scorer:       scorer,
		recentWindow: recentWindow,
	}
}

// IsDuplicate checks the three gates cheapest-first and returns the content
// hash for the caller's bookkeeping. A URL-gate hit returns an empty hash:
// the caller must not persist in that case.
func (s *Service) IsDuplicate(ctx context.Context, url, title, source, content, summary string) (bool, string, error) {
	exists, err := s.store.URLExists(ctx, url)
	if err != nil {
		return false, "", fmt.Errorf("failed to check URL: %w", err)
	}
	if exists {
		return true, "", nil
	}

	contentHash := ComputeContentHash(title, source)
	exists, err = s.store.HashExists(ctx, contentHash)
	if err != nil {
		return false, "", fmt.Errorf("failed to check content hash: %w", err)
	}
	if exists {
		return true, contentHash, nil
	}

	current := NewsText{Title: title, Content: content, Summary: summary}
	recent, err := s.store.GetRecentArticles(ctx, s.recentWindow)
	if err != nil {
		return false, "", fmt.Errorf("failed to load recent articles: %w", err)
	}
	for _, article := range recent {
		candidate := NewsText{
			Title:   article.Title,
			Content: article.Content,
			Summary: article.Summary,
		}
		if result := s.scorer.Compare(current, candidate); result.IsDuplicate {
			return true, contentHash, nil
		}
	}

	return false, contentHash, nil
}

// ComputeContentHash fingerprints an article as SHA-256 over the normalized
// title and the source, so the same headline from two sources is two rows.
func ComputeContentHash(title, source string) string {
	sum := sha256.Sum256([]byte(NormalizeTitle(title) + "|" + source))
	return hex.EncodeToString(sum[:])
}

// NormalizeTitle folds full-width forms to narrow, strips bracketed tags,
// removes every rune that is not a letter, number or underscore, and
// lowercases. Idempotent.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}
	title = width.Narrow.String(title)
	title = bracketTagRe.ReplaceAllString(title, "")
	title = nonWordRe.ReplaceAllString(title, "")
	return strings.ToLower(title)
}
