package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRealtimeFetchJin10Shape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [
			{"id": 12345, "time": "2025-06-01 20:00:00", "data": {"content": "<b>美联储</b>宣布维持利率不变<br>市场反应平淡"}},
			{"id": 12346, "time": "2025-06-01 20:01:00", "data": {"content": ""}}
		]}`))
	}))
	defer server.Close()

	fetcher := NewRealtimeFetcher(SourceConfig{
		Name:      "jin10",
		Type:      TypeRealtime,
		URL:       server.URL,
		AnchorURL: "https://www.jin10.com/flash",
		Category:  "快讯",
		MaxItems:  50,
	}, "")

	articles, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article (empty content skipped), got %d", len(articles))
	}

	article := articles[0]
	if strings.Contains(article.Title, "<b>") || strings.Contains(article.Title, "<br>") {
		t.Errorf("expected HTML stripped from title, got %q", article.Title)
	}
	if article.URL != "https://www.jin10.com/flash#12345" {
		t.Errorf("expected anchor URL, got %q", article.URL)
	}

	// 20:00 Beijing time is 12:00 UTC.
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if article.PublishedAt == nil || !article.PublishedAt.Equal(want) {
		t.Errorf("expected published at %v, got %v", want, article.PublishedAt)
	}
}

func TestRealtimeFetchWallstreetShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": {"items": [
			{"id": "991", "content_text": "原油期货收涨2%", "display_time": 1748805600, "uri": "livenews/991"},
			{"id": "992", "content_text": "金价走低", "display_time": 1748805660, "uri": "https://example.com/articles/992"}
		]}}`))
	}))
	defer server.Close()

	fetcher := NewRealtimeFetcher(SourceConfig{
		Name:      "wallstreet",
		Type:      TypeRealtime,
		URL:       server.URL,
		AnchorURL: "https://wallstreetcn.com/livenews",
		Category:  "快讯",
		MaxItems:  50,
	}, "")

	articles, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}

	if articles[0].URL != "https://wallstreetcn.com/livenews/991" {
		t.Errorf("expected relative uri resolved against anchor host, got %q", articles[0].URL)
	}
	if articles[1].URL != "https://example.com/articles/992" {
		t.Errorf("expected absolute uri kept as is, got %q", articles[1].URL)
	}

	want := time.Unix(1748805600, 0).UTC()
	if articles[0].PublishedAt == nil || !articles[0].PublishedAt.Equal(want) {
		t.Errorf("expected published at %v, got %v", want, articles[0].PublishedAt)
	}
}

func TestRealtimeFetchTruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("长", 250)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"id": 1, "data": {"content": "` + long + `"}}]}`))
	}))
	defer server.Close()

	fetcher := NewRealtimeFetcher(SourceConfig{
		Name: "jin10", Type: TypeRealtime, URL: server.URL, MaxItems: 50,
	}, "")

	articles, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}

	runes := []rune(articles[0].Title)
	if len(runes) != maxFlashTitleLength+3 {
		t.Errorf("expected title truncated to %d runes plus ellipsis, got %d", maxFlashTitleLength, len(runes))
	}
	if !strings.HasSuffix(articles[0].Title, "...") {
		t.Errorf("expected truncated title to end with ellipsis, got %q", articles[0].Title)
	}
}

func TestRealtimeFetchSwallowsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := NewRealtimeFetcher(SourceConfig{
		Name: "jin10", Type: TypeRealtime, URL: server.URL, MaxItems: 50,
	}, "")

	articles, err := fetcher.Fetch(context.Background())
	if err != nil {
		t.Fatalf("expected server error to be swallowed, got %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("expected no articles, got %d", len(articles))
	}
}

func TestRealtimeFetchPropagatesCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	fetcher := NewRealtimeFetcher(SourceConfig{
		Name: "jin10", Type: TypeRealtime, URL: server.URL, MaxItems: 50,
	}, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx)
	if err == nil {
		t.Fatal("expected cancellation error, got nil")
	}
}
