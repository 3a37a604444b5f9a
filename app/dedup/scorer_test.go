package dedup

import (
	"testing"

	"github.com/yikao/finfeed/app/synonym"
)

func TestCompareSemanticDuplicate(t *testing.T) {
	scorer := NewScorer(DefaultConfig(), nil)

	result := scorer.Compare(
		NewsText{Title: "苹果股价上涨5%"},
		NewsText{Title: "苹果公司股票走高5%"},
	)

	if !result.IsDuplicate {
		t.Fatalf("expected duplicate verdict, got similarity %.3f", result.Similarity)
	}
	if result.Method != MethodSemanticFingerprint {
		t.Errorf("expected semantic_fingerprint method, got %q", result.Method)
	}
	if result.Similarity < 0.99 {
		t.Errorf("expected near-perfect similarity, got %.3f", result.Similarity)
	}
}

func TestCompareDifferentStoriesNotDuplicate(t *testing.T) {
	scorer := NewScorer(DefaultConfig(), nil)

	result := scorer.Compare(
		NewsText{Title: "苹果股价上涨5%"},
		NewsText{Title: "微软营收增长10%"},
	)

	if result.IsDuplicate {
		t.Fatalf("expected distinct stories to pass, got method %q", result.Method)
	}
}

func TestCompareSymmetric(t *testing.T) {
	scorer := NewScorer(DefaultConfig(), nil)

	a := NewsText{Title: "苹果股价上涨5%"}
	b := NewsText{Title: "特斯拉发布新车型"}

	r1 := scorer.Compare(a, b)
	r2 := scorer.Compare(b, a)
	if r1.Similarity != r2.Similarity {
		t.Errorf("expected symmetric similarity, got %.4f vs %.4f", r1.Similarity, r2.Similarity)
	}
}

func TestCompareSynonymEnhancedDuplicate(t *testing.T) {
	engine := synonym.NewEngineFromTables(
		map[string][]string{
			"收购": {"并购"},
			"并购": {"收购"},
		},
		nil, nil, "multi",
	)
	scorer := NewScorer(DefaultConfig(), engine)

	result := scorer.Compare(
		NewsText{Title: "苹果宣布收购"},
		NewsText{Title: "苹果宣布并购"},
	)

	if !result.IsDuplicate {
		t.Fatalf("expected synonym-enhanced duplicate, got similarity %.3f", result.Similarity)
	}
	if result.Method != MethodSynonymEnhanced {
		t.Errorf("expected synonym_enhanced method, got %q", result.Method)
	}

	// Without the synonym table the same pair is not a duplicate.
	bare := NewScorer(DefaultConfig(), nil)
	if r := bare.Compare(
		NewsText{Title: "苹果宣布收购"},
		NewsText{Title: "苹果宣布并购"},
	); r.IsDuplicate {
		t.Errorf("expected no duplicate without synonym table, got method %q", r.Method)
	}
}

func TestSemanticSimilarityIgnoresEmptyCategories(t *testing.T) {
	scorer := NewScorer(DefaultConfig(), nil)

	// Only the company category is populated on both sides. Empty categories
	// must not drag the weighted average down.
	sim := scorer.semanticSimilarity(
		scorer.extractSemanticElements("苹果"),
		scorer.extractSemanticElements("苹果"),
	)
	if sim != 1.0 {
		t.Errorf("expected 1.0 for single populated category, got %.3f", sim)
	}
}

func TestSemanticSimilarityOneSidedCategoryCountsWeight(t *testing.T) {
	scorer := NewScorer(DefaultConfig(), nil)

	// One side has numbers, the other does not: the numbers weight joins
	// the denominator with a zero score.
	sim := scorer.semanticSimilarity(
		scorer.extractSemanticElements("苹果上涨5%"),
		scorer.extractSemanticElements("苹果上涨"),
	)
	want := (0.4 + 0.3) / (0.4 + 0.3 + 0.2)
	if diff := sim - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected %.4f, got %.4f", want, sim)
	}
}

func TestExtractSemanticElementsCanonicalizes(t *testing.T) {
	scorer := NewScorer(DefaultConfig(), nil)

	elements := scorer.extractSemanticElements("谷歌公司市值攀升3.5%")

	if len(elements["companies"]) != 1 || elements["companies"][0] != "谷歌" {
		t.Errorf("expected company canonicalized to 谷歌, got %v", elements["companies"])
	}
	if len(elements["actions"]) != 1 || elements["actions"][0] != "上涨" {
		t.Errorf("expected 攀升 canonicalized to 上涨, got %v", elements["actions"])
	}
	if len(elements["numbers"]) != 1 || elements["numbers"][0] != "3.5" {
		t.Errorf("expected number 3.5 without percent sign, got %v", elements["numbers"])
	}
	if len(elements["themes"]) != 1 || elements["themes"][0] != "市值" {
		t.Errorf("expected theme 市值, got %v", elements["themes"])
	}
}

func TestSynonymSimilarityTakesBestDirection(t *testing.T) {
	engine := synonym.NewEngineFromTables(
		map[string][]string{
			"上涨": {"攀升", "走高"},
		},
		nil, nil, "basic",
	)
	cfg := DefaultConfig()
	cfg.SynonymSource = "basic"
	scorer := NewScorer(cfg, engine)

	// Forward direction matches everything, reverse direction has an extra
	// unmatched token. The max of both directions must win.
	sim := scorer.synonymSimilarity(
		[]string{"上涨"},
		[]string{"攀升", "市场"},
	)
	if sim < 0.89 {
		t.Errorf("expected best-direction score around 0.9, got %.3f", sim)
	}
}

func TestNumericSimilarity(t *testing.T) {
	if sim := numericSimilarity("没有数字", "也没有数字"); sim != 1.0 {
		t.Errorf("expected 1.0 when neither side has numbers, got %.3f", sim)
	}
	if sim := numericSimilarity("上涨5%", "没有数字"); sim != 0.0 {
		t.Errorf("expected 0.0 for one-sided numbers, got %.3f", sim)
	}
	if sim := numericSimilarity("上涨5%和3%", "上涨5%"); sim != 0.5 {
		t.Errorf("expected 0.5 for half-overlapping numbers, got %.3f", sim)
	}
}

func TestFingerprintsStable(t *testing.T) {
	scorer := NewScorer(DefaultConfig(), nil)

	if scorer.ExactFingerprint("苹果发布新品，股价上涨") != scorer.ExactFingerprint("苹果发布新品,股价上涨") {
		t.Error("expected exact fingerprint to survive punctuation normalization")
	}
	if scorer.SemanticFingerprint("苹果股价上涨5%") != scorer.SemanticFingerprint("苹果公司股票走高5%") {
		t.Error("expected semantic fingerprint to match across paraphrase")
	}
	if scorer.SemanticFingerprint("苹果股价上涨5%") == scorer.SemanticFingerprint("微软营收增长10%") {
		t.Error("expected distinct stories to produce distinct semantic fingerprints")
	}
}
