package transporthttp

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// RouterDeps wires the use cases into the HTTP surface.
type RouterDeps struct {
	Feed     FeedService
	Review   ReviewService
	APIKeys  []string
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter builds the gin engine. /healthz and /metrics stay outside the API key check.
func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLog(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	h := &handlers{feed: deps.Feed, review: deps.Review}
	api := router.Group("/api", APIKeyAuth(deps.APIKeys), BodyLimit(maxBodyBytes))

	feed := api.Group("/feed")
	{
		feed.GET("", h.refreshFeed)
		feed.GET("/current", h.currentFeed)
		feed.POST("/read", h.markAllRead)
		feed.DELETE("/:id", h.dismissEvent)
		feed.POST("/:id/read", h.markRead)
	}

	submissions := api.Group("/submissions")
	{
		submissions.GET("", h.listSubmissions)
		submissions.GET("/:id", h.getSubmission)
		submissions.PUT("/:id/status", h.setStatus)
		submissions.PUT("/:id/comments", h.setComments)
		submissions.POST("/:id/featured", h.toggleFeatured)
		submissions.POST("/:id/notify", h.notify)
	}

	router.NoRoute(func(c *gin.Context) {
		WriteProblem(c, http.StatusNotFound, "not found", "no route for "+c.Request.URL.Path)
	})
	return router
}
