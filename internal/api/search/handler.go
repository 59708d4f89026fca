package search

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/smartsearch/internal/api/respond"
	"github.com/liliang-cn/smartsearch/internal/domain"
	"github.com/liliang-cn/smartsearch/internal/service"
)

// Handler handles one-shot REST search requests
type Handler struct {
	searchService *service.SearchService
}

// NewHandler creates a new search handler
func NewHandler(searchService *service.SearchService) *Handler {
	return &Handler{searchService: searchService}
}

// RegisterRoutes registers search routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Search)
	r.GET("/health", h.Health)
}

// Search runs a search. Backend failures come back as 200 with status "error".
func (h *Handler) Search(c *gin.Context) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.searchService.Search(c.Request.Context(), req)
	if err != nil {
		respond.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Health reports whether the backend REST API is reachable
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reachable": h.searchService.Health(c.Request.Context())})
}
