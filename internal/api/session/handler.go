package session

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/smartsearch/internal/api/respond"
	"github.com/liliang-cn/smartsearch/internal/service"
)

// QueryRequest is the body of POST /api/session/query
type QueryRequest struct {
	Text string `json:"text"`
}

// Handler exposes the conversational search session to renderers
type Handler struct {
	sessionService *service.SessionService
}

// NewHandler creates a new session handler
func NewHandler(sessionService *service.SessionService) *Handler {
	return &Handler{sessionService: sessionService}
}

// RegisterRoutes registers session routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.GetSession)
	r.POST("/query", h.SubmitQuery)
	r.POST("/reset", h.Reset)
	r.GET("/stream", h.Stream)
	r.GET("/suggestions", h.Suggestions)
}

// GetSession returns the current session snapshot
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessionService.Snapshot())
}

// SubmitQuery starts a new query block. Results arrive asynchronously.
func (h *Handler) SubmitQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessionService.SubmitQuery(c.Request.Context(), req.Text); err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusAccepted, h.sessionService.Snapshot())
}

// Reset clears the session
func (h *Handler) Reset(c *gin.Context) {
	h.sessionService.Reset()
	c.JSON(http.StatusOK, h.sessionService.Snapshot())
}

// Suggestions returns the landing view query suggestions
func (h *Handler) Suggestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"suggestions": service.SuggestionQueries})
}

// Stream pushes a session snapshot on every change (SSE)
func (h *Handler) Stream(c *gin.Context) {
	updates, cancel := h.sessionService.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("session", h.sessionService.Snapshot())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("session", snap)
			return true
		}
	})
}
