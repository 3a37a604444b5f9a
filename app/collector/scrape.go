package collector

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ScrapeFetcher walks a listing page with CSS selectors, optionally
// following each link to extract the article body.
type ScrapeFetcher struct {
	src       SourceConfig
	userAgent string
	client    *http.Client
}

func NewScrapeFetcher(src SourceConfig, userAgent string) *ScrapeFetcher {
	return &ScrapeFetcher{
		src:       src,
		userAgent: userAgent,
		client:    newHTTPClient(),
	}
}

func (f *ScrapeFetcher) Name() string {
	return f.src.Name
}

func (f *ScrapeFetcher) Fetch(ctx context.Context) ([]RawArticle, error) {
	body, err := fetchBody(ctx, f.client, f.src.URL, f.userAgent, f.src.Headers)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("Scrape fetch failed", "source", f.src.Name, "error", err)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		slog.Warn("Scrape parse failed", "source", f.src.Name, "error", err)
		return nil, nil
	}

	base, err := url.Parse(f.src.URL)
	if err != nil {
		return nil, nil
	}

	var articles []RawArticle
	doc.Find(f.src.Selectors.Item).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(articles) >= f.src.MaxItems || ctx.Err() != nil {
			return false
		}

		title := strings.TrimSpace(sel.Find(f.src.Selectors.Title).First().Text())
		link := f.resolveLink(base, sel)
		if title == "" || link == "" {
			return true
		}

		article := RawArticle{
			Title:          title,
			URL:            link,
			SourceCategory: f.src.Category,
		}
		if f.src.Selectors.Summary != "" {
			article.Summary = truncateRunes(strings.TrimSpace(sel.Find(f.src.Selectors.Summary).First().Text()), maxSummaryLength)
		}
		if f.src.ExtractContent {
			article.Content = f.extractContent(ctx, link)
		}

		articles = append(articles, article)
		return true
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Debug("Scrape fetch completed", "source", f.src.Name, "articles", len(articles))
	return articles, nil
}

func (f *ScrapeFetcher) resolveLink(base *url.URL, sel *goquery.Selection) string {
	href, ok := sel.Find(f.src.Selectors.Link).First().Attr("href")
	if !ok {
		href, ok = sel.Attr("href")
	}
	if !ok || href == "" {
		return ""
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// extractContent follows the article link and runs readability over the
// page. Failures leave the article with an empty body instead of dropping it.
func (f *ScrapeFetcher) extractContent(ctx context.Context, link string) string {
	page, err := fetchBody(ctx, f.client, link, f.userAgent, f.src.Headers)
	if err != nil {
		slog.Debug("Content fetch failed", "source", f.src.Name, "url", link, "error", err)
		return ""
	}

	extracted, err := readability.FromReader(bytes.NewReader(page), nil)
	if err != nil {
		slog.Debug("Content extraction failed", "source", f.src.Name, "url", link, "error", err)
		return ""
	}

	return extracted.Content
}
