package collector

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxFlashTitleLength = 200

// Flash feeds report Beijing time without an offset.
var beijingTZ = time.FixedZone("CST", 8*60*60)

var flashTitleReplacer = strings.NewReplacer(
	"<b>", "",
	"</b>", "",
	"<br>", " ",
	"<br/>", " ",
)

// RealtimeFetcher pulls a JSON flash-news API. Two response shapes are
// supported: a bare item array under "data" (jin10 style) and an object
// with an "items" array (wallstreet style).
type RealtimeFetcher struct {
	src       SourceConfig
	userAgent string
	client    *http.Client
	now       func() time.Time
}

func NewRealtimeFetcher(src SourceConfig, userAgent string) *RealtimeFetcher {
	return &RealtimeFetcher{
		src:       src,
		userAgent: userAgent,
		client:    newHTTPClient(),
		now:       time.Now,
	}
}

type flashResponse struct {
	Data json.RawMessage `json:"data"`
}

type flashItemList struct {
	Items []flashItem `json:"items"`
}

type flashItem struct {
	ID          flashID `json:"id"`
	Time        string  `json:"time"`
	DisplayTime int64   `json:"display_time"`
	Title       string  `json:"title"`
	ContentText string  `json:"content_text"`
	URI         string  `json:"uri"`
	Data        struct {
		Content string `json:"content"`
	} `json:"data"`
}

// flashID accepts both string and numeric ids.
type flashID string

func (id *flashID) UnmarshalJSON(b []byte) error {
	*id = flashID(strings.Trim(string(b), `"`))
	return nil
}

func (f *RealtimeFetcher) Name() string {
	return f.src.Name
}

func (f *RealtimeFetcher) Fetch(ctx context.Context) ([]RawArticle, error) {
	body, err := fetchBody(ctx, f.client, f.src.URL, f.userAgent, f.src.Headers)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("Realtime fetch failed", "source", f.src.Name, "error", err)
		return nil, nil
	}

	items, err := decodeFlashItems(body)
	if err != nil {
		slog.Warn("Realtime decode failed", "source", f.src.Name, "error", err)
		return nil, nil
	}

	articles := make([]RawArticle, 0, len(items))
	for _, item := range items {
		if len(articles) >= f.src.MaxItems {
			break
		}

		title := f.itemTitle(item)
		if title == "" {
			continue
		}

		published := f.itemTime(item)
		articles = append(articles, RawArticle{
			Title:          title,
			URL:            f.itemURL(item, title),
			Content:        title,
			PublishedAt:    &published,
			SourceCategory: f.src.Category,
		})
	}

	slog.Debug("Realtime fetch completed", "source", f.src.Name, "articles", len(articles))
	return articles, nil
}

func decodeFlashItems(body []byte) ([]flashItem, error) {
	var resp flashResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	var items []flashItem
	if err := json.Unmarshal(resp.Data, &items); err == nil {
		return items, nil
	}

	var list flashItemList
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

func (f *RealtimeFetcher) itemTitle(item flashItem) string {
	title := item.Data.Content
	if title == "" {
		title = item.ContentText
	}
	if title == "" {
		title = item.Title
	}

	title = strings.TrimSpace(flashTitleReplacer.Replace(title))
	return truncateRunes(title, maxFlashTitleLength)
}

// itemTime converts the flash timestamp to UTC. String timestamps carry
// Beijing wall-clock time, numeric ones are unix seconds.
func (f *RealtimeFetcher) itemTime(item flashItem) time.Time {
	if item.Time != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", item.Time, beijingTZ); err == nil {
			return t.UTC()
		}
	}
	if item.DisplayTime > 0 {
		return time.Unix(item.DisplayTime, 0).UTC()
	}
	return f.now().UTC()
}

// itemURL picks the article page when one exists, otherwise synthesizes a
// stable anchor on the live page so the URL dedup gate still works.
func (f *RealtimeFetcher) itemURL(item flashItem, title string) string {
	if item.URI != "" {
		if strings.HasPrefix(item.URI, "http://") || strings.HasPrefix(item.URI, "https://") {
			return item.URI
		}
		if base, err := url.Parse(f.anchorBase()); err == nil {
			return base.Scheme + "://" + base.Host + "/" + strings.TrimPrefix(item.URI, "/")
		}
	}

	id := string(item.ID)
	if id == "" {
		sum := md5.Sum([]byte(title))
		id = hex.EncodeToString(sum[:])[:8]
	}
	return f.anchorBase() + "#" + id
}

func (f *RealtimeFetcher) anchorBase() string {
	if f.src.AnchorURL != "" {
		return f.src.AnchorURL
	}
	return f.src.URL
}
