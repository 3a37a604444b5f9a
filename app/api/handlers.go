package api

import (
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yikao/finfeed/app/collection"
	"github.com/yikao/finfeed/app/database"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 200
)

func NewHandler(articles database.ArticleRepository, logs database.CollectionLogRepository,
	manager collection.ManagerInterface, runner *collection.Runner, version string) *Handler {
	return &Handler{
		articles: articles,
		logs:     logs,
		manager:  manager,
		runner:   runner,
		version:  version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"sources":   len(h.manager.Sources()),
	}

	if count, err := h.articles.GetArticleCount(c.Request.Context()); err == nil {
		health["articles"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.articles.GetStats(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := gin.H{
		"articles": gin.H{
			"total":    stats.Total,
			"unread":   stats.Unread,
			"starred":  stats.Starred,
			"filtered": stats.Filtered,
		},
	}

	if latest, err := h.logs.GetLatestPerSource(ctx); err == nil {
		sources := make([]gin.H, 0, len(latest))
		for _, log := range latest {
			sources = append(sources, gin.H{
				"source":           log.Source,
				"status":           log.Status,
				"started_at":       log.StartedAt,
				"articles_fetched": log.ArticlesFetched,
				"articles_new":     log.ArticlesNew,
				"last_article_at":  log.LastArticleTime,
			})
		}
		response["sources"] = sources
	}

	c.JSON(http.StatusOK, response)
}

// APICollectAll triggers a manual collection across every registered
// source and reports per-source outcomes.
func (h *Handler) APICollectAll(c *gin.Context) {
	sources := h.manager.Sources()
	results := h.runner.RunAll(c.Request.Context(), sources)

	c.JSON(http.StatusOK, gin.H{
		"results": collectSummaries(sources, results),
		"total":   len(sources),
	})
}

func (h *Handler) APICollectSource(c *gin.Context) {
	source := c.Param("source")
	if !slices.Contains(h.manager.Sources(), source) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown source: " + source})
		return
	}

	results := h.runner.RunAll(c.Request.Context(), []string{source})

	summary := collectSummaries([]string{source}, results)[0]
	status := http.StatusOK
	if results[source] == nil {
		status = http.StatusBadGateway
	}
	c.JSON(status, summary)
}

func (h *Handler) APIGetLogs(c *gin.Context) {
	source := c.Query("source")

	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = min(parsed, maxLogLimit)
	}

	logs, err := h.logs.GetRecentLogs(c.Request.Context(), source, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_logs", "source", source, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
	})
}

func collectSummaries(sources []string, results map[string]*collection.Result) []gin.H {
	summaries := make([]gin.H, 0, len(sources))
	for _, source := range sources {
		result := results[source]
		if result == nil {
			summaries = append(summaries, gin.H{
				"source":  source,
				"success": false,
				"message": "collection failed, see /api/logs",
			})
			continue
		}
		summaries = append(summaries, gin.H{
			"source":     source,
			"success":    true,
			"fetched":    result.Fetched,
			"new":        result.New,
			"duplicates": result.Duplicates,
		})
	}
	return summaries
}
