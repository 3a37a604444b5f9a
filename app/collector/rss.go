package collector

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
)

const maxSummaryLength = 1000

// RSSFetcher pulls an RSS or Atom feed and normalizes its items.
type RSSFetcher struct {
	src       SourceConfig
	userAgent string
	client    *http.Client
	parser    *gofeed.Parser
}

func NewRSSFetcher(src SourceConfig, userAgent string) *RSSFetcher {
	return &RSSFetcher{
		src:       src,
		userAgent: userAgent,
		client:    newHTTPClient(),
		parser:    gofeed.NewParser(),
	}
}

func (f *RSSFetcher) Name() string {
	return f.src.Name
}

func (f *RSSFetcher) Fetch(ctx context.Context) ([]RawArticle, error) {
	data, err := fetchBody(ctx, f.client, f.src.URL, f.userAgent, f.src.Headers)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("RSS fetch failed", "source", f.src.Name, "error", err)
		return nil, nil
	}

	feed, err := f.parser.Parse(bytes.NewReader(data))
	if err != nil {
		slog.Warn("RSS parse failed", "source", f.src.Name, "error", err)
		return nil, nil
	}

	articles := make([]RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(articles) >= f.src.MaxItems {
			break
		}

		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}

		article := RawArticle{
			Title:          title,
			URL:            link,
			Content:        item.Content,
			Summary:        truncateRunes(stripHTML(item.Description), maxSummaryLength),
			SourceCategory: f.src.Category,
		}
		if item.PublishedParsed != nil {
			published := item.PublishedParsed.UTC()
			article.PublishedAt = &published
		}

		articles = append(articles, article)
	}

	slog.Debug("RSS fetch completed", "source", f.src.Name, "articles", len(articles))
	return articles, nil
}
