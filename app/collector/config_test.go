package collector

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSourcesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write sources file: %v", err)
	}
	return path
}

func TestLoadSources(t *testing.T) {
	path := writeSourcesFile(t, `
sources:
  - name: jin10
    type: realtime
    url: https://flash-api.jin10.com/get_flash_list
    anchor_url: https://www.jin10.com/flash
    category: 快讯
    enabled: true
  - name: kr36
    type: rss
    url: https://36kr.com/feed
    category: 科技
    enabled: true
    max_items: 20
  - name: cls
    type: scrape
    url: https://www.cls.cn/telegraph
    category: 快讯
    selectors:
      item: .telegraph-item
      title: .telegraph-content
      link: a
`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources failed: %v", err)
	}
	if len(sources) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(sources))
	}

	if sources[0].MaxItems != 50 {
		t.Errorf("expected default max_items 50, got %d", sources[0].MaxItems)
	}
	if sources[1].MaxItems != 20 {
		t.Errorf("expected max_items 20, got %d", sources[1].MaxItems)
	}
	if sources[2].Enabled {
		t.Error("expected cls to be disabled by default")
	}
}

func TestLoadSourcesValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{
			name: "unknown type",
			content: `
sources:
  - name: foo
    type: websocket
    url: https://example.com
`,
		},
		{
			name: "missing url",
			content: `
sources:
  - name: foo
    type: rss
`,
		},
		{
			name: "missing name",
			content: `
sources:
  - type: rss
    url: https://example.com
`,
		},
		{
			name: "scrape without selectors",
			content: `
sources:
  - name: foo
    type: scrape
    url: https://example.com
`,
		},
		{
			name: "duplicate names",
			content: `
sources:
  - name: foo
    type: rss
    url: https://example.com/a
  - name: foo
    type: rss
    url: https://example.com/b
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeSourcesFile(t, tc.content)
			if _, err := LoadSources(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestBuildFetchersSkipsDisabled(t *testing.T) {
	sources := []SourceConfig{
		{Name: "a", Type: TypeRSS, URL: "https://example.com/a", Enabled: true, MaxItems: 10},
		{Name: "b", Type: TypeRealtime, URL: "https://example.com/b", Enabled: false, MaxItems: 10},
		{Name: "c", Type: TypeScrape, URL: "https://example.com/c", Enabled: true, MaxItems: 10,
			Selectors: Selectors{Item: ".item", Title: ".title", Link: "a"}},
	}

	fetchers, err := BuildFetchers(sources, "test-agent")
	if err != nil {
		t.Fatalf("BuildFetchers failed: %v", err)
	}
	if len(fetchers) != 2 {
		t.Fatalf("expected 2 fetchers, got %d", len(fetchers))
	}
	if fetchers[0].Name() != "a" || fetchers[1].Name() != "c" {
		t.Errorf("unexpected fetcher names: %s, %s", fetchers[0].Name(), fetchers[1].Name())
	}
}
