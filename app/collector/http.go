package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// fetchBody performs a GET and returns the response body. The response is
// capped at 10 MB to keep a misbehaving source from exhausting memory.
func fetchBody(ctx context.Context, client *http.Client, url, userAgent string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// stripHTML removes markup and collapses whitespace, for feed descriptions
// that arrive as HTML fragments.
func stripHTML(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(htmlTagRe.ReplaceAllString(s, " ")), " "))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
