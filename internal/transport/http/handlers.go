package transporthttp

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"ReviewDesk/internal/domain"
	"ReviewDesk/internal/usecase"
)

// FeedService is the activity feed engine.
type FeedService interface {
	Refresh(ctx context.Context, limit int) (usecase.FeedResult, error)
	Feed() []domain.ActivityEvent
	Dismiss(id string) bool
	MarkRead(id string) bool
	MarkAllRead() int
	UnreadCount() int
}

// ReviewService is the submission review workflow.
type ReviewService interface {
	Get(ctx context.Context, id int64) (domain.Submission, error)
	List(ctx context.Context, filter domain.Filter) ([]domain.Submission, error)
	SetStatus(ctx context.Context, id int64, status domain.Status) (domain.Submission, error)
	SetCommentsAndNotify(ctx context.Context, id int64, comments string) (usecase.Outcome, error)
	ToggleFeatured(ctx context.Context, id int64) (domain.Submission, error)
	NotifyOnly(ctx context.Context, id int64) (usecase.Outcome, error)
}

var (
	_ FeedService   = (*usecase.Aggregator)(nil)
	_ ReviewService = (*usecase.Review)(nil)
)

type feedView struct {
	Events        []domain.ActivityEvent `json:"events"`
	FailedSources []string               `json:"failed_sources,omitempty"`
	Unread        int                    `json:"unread"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type commentsRequest struct {
	Comments *string `json:"comments" binding:"required"`
}

type handlers struct {
	feed   FeedService
	review ReviewService
}

func (h *handlers) refreshFeed(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteProblem(c, http.StatusBadRequest, "invalid limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	res, err := h.feed.Refresh(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedView{
		Events:        nonNil(res.Events),
		FailedSources: res.FailedSources,
		Unread:        h.feed.UnreadCount(),
	})
}

func (h *handlers) currentFeed(c *gin.Context) {
	c.JSON(http.StatusOK, feedView{
		Events: nonNil(h.feed.Feed()),
		Unread: h.feed.UnreadCount(),
	})
}

func (h *handlers) dismissEvent(c *gin.Context) {
	if !h.feed.Dismiss(c.Param("id")) {
		WriteProblem(c, http.StatusNotFound, "not found", "no event "+c.Param("id")+" in the current feed")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) markRead(c *gin.Context) {
	if !h.feed.MarkRead(c.Param("id")) {
		WriteProblem(c, http.StatusNotFound, "not found", "no event "+c.Param("id")+" in the current feed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": h.feed.UnreadCount()})
}

func (h *handlers) markAllRead(c *gin.Context) {
	changed := h.feed.MarkAllRead()
	c.JSON(http.StatusOK, gin.H{"changed": changed, "unread": h.feed.UnreadCount()})
}

func (h *handlers) listSubmissions(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		WriteProblem(c, http.StatusBadRequest, "invalid filter", err.Error())
		return
	}
	recs, err := h.review.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	if recs == nil {
		recs = []domain.Submission{}
	}
	c.JSON(http.StatusOK, recs)
}

func (h *handlers) getSubmission(c *gin.Context) {
	id, ok := submissionID(c)
	if !ok {
		return
	}
	rec, err := h.review.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handlers) setStatus(c *gin.Context) {
	id, ok := submissionID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteProblem(c, http.StatusBadRequest, "invalid body", err.Error())
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	rec, err := h.review.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// setComments answers 200 even when the notification fails: the comments are
// saved and the body says so.
func (h *handlers) setComments(c *gin.Context) {
	id, ok := submissionID(c)
	if !ok {
		return
	}
	var req commentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		WriteProblem(c, http.StatusBadRequest, "invalid body", err.Error())
		return
	}
	out, err := h.review.SetCommentsAndNotify(c.Request.Context(), id, *req.Comments)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) toggleFeatured(c *gin.Context) {
	id, ok := submissionID(c)
	if !ok {
		return
	}
	rec, err := h.review.ToggleFeatured(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handlers) notify(c *gin.Context) {
	id, ok := submissionID(c)
	if !ok {
		return
	}
	out, err := h.review.NotifyOnly(c.Request.Context(), id)
	if err != nil && out.DispatchErr == nil {
		writeError(c, err)
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, out)
		return
	}
	c.JSON(http.StatusOK, out)
}

func submissionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		WriteProblem(c, http.StatusBadRequest, "invalid id", "submission id must be a positive integer")
		return 0, false
	}
	return id, true
}

func filterFromQuery(c *gin.Context) (domain.Filter, error) {
	f := domain.Filter{
		Category:         c.Query("category"),
		PresentationType: c.Query("presentation_type"),
		Search:           strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return domain.Filter{}, err
		}
		f.Status = status
	}
	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.Filter{}, err
		}
		f.Featured = &featured
	}
	return f, nil
}

func nonNil(events []domain.ActivityEvent) []domain.ActivityEvent {
	if events == nil {
		return []domain.ActivityEvent{}
	}
	return events
}
