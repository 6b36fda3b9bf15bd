// Package httpapi exposes the async research lifecycle over HTTP:
// submit a query, poll its status, fetch the completed result.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/jobs"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/query"
	"github.com/Antunnaki/workforce-democracy-project-sub003/internal/research"
)

// Handler owns the research routes.
type Handler struct {
	runner *research.Runner
	queue  *jobs.Queue
}

func NewHandler(runner *research.Runner, queue *jobs.Queue) *Handler {
	return &Handler{runner: runner, queue: queue}
}

// Register mounts the API routes on the router.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/research")
	api.POST("/submit", h.Submit)
	api.GET("/status/:jobId", h.Status)
	api.GET("/result/:jobId", h.Result)
	api.GET("/stats", h.Stats)
}

// NewRouter builds a gin engine with the API mounted.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	h.Register(r)
	return r
}

type submitRequest struct {
	Message             string        `json:"message"`
	Context             query.Context `json:"context"`
	ConversationHistory []query.Turn  `json:"conversationHistory"`
}

// Submit accepts a research query and returns a job id immediately. The
// heavy work happens in the background; clients poll the status URL.
func (h *Handler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	q := query.Query{
		Text:    req.Message,
		History: req.ConversationHistory,
		Context: req.Context,
	}

	jobID := h.runner.Submit(q)
	slog.InfoContext(ctx, "research job submitted", "job", jobID)

	c.JSON(http.StatusAccepted, gin.H{
		"jobId":     jobID,
		"status":    jobs.StatusPending,
		"message":   "Query submitted. Poll the status endpoint for updates.",
		"statusUrl": "/api/research/status/" + jobID,
		"resultUrl": "/api/research/result/" + jobID,
	})
}

// Status reports job progress.
func (h *Handler) Status(c *gin.Context) {
	view, err := h.queue.Status(c.Param("jobId"))
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		slog.ErrorContext(c.Request.Context(), "status lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status lookup failed"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Result returns the completed payload, 404 for unknown/evicted jobs,
// 425 while the job is still running, and 502 with the stored generic
// message when the job failed.
func (h *Handler) Result(c *gin.Context) {
	result, err := h.queue.Result(c.Param("jobId"))
	if err != nil {
		switch {
		case errors.Is(err, jobs.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		case errors.Is(err, jobs.ErrNotReady):
			c.JSON(http.StatusTooEarly, gin.H{"error": "job not completed yet"})
		case errors.Is(err, jobs.ErrFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": research.FallbackMessage})
		default:
			slog.ErrorContext(c.Request.Context(), "result lookup failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "result lookup failed"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// Stats exposes queue counts for monitoring.
func (h *Handler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.queue.Stats())
}
